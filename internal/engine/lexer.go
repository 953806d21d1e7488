package engine

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer разбивает исходный текст на лексемы по одной за вызов NextToken.
//
// Правила (в порядке приоритета):
//   - пробельные символы пропускаются
//   - последовательность десятичных цифр (любых из Unicode Nd) — NUMBER
//   - буква, затем буквы/цифры — KEYWORD (если слово в верхнем регистре
//     совпадает с ключевым) или IDENT (регистр сохраняется)
//   - операторы по самому длинному совпадению
//   - любой другой символ — LexError
type Lexer struct {
	src string

	pos  int // смещение следующего непрочитанного байта
	line int
	col  int
}

// NewLexer создаёт лексер для исходного текста.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// NextToken возвращает следующую лексему.
// После конца текста всегда возвращает EOF.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.position()
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Pos: start}, nil
	}

	r, _ := l.peekRune()

	switch {
	case unicode.IsDigit(r):
		return l.readNumber(start)
	case unicode.IsLetter(r):
		return l.readWord(start), nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.advanceBytes(len(op))
			return Token{Kind: TokenOp, Value: op, Pos: start}, nil
		}
	}

	return Token{}, &LexError{Char: r, Pos: start, Err: ErrUnexpectedChar}
}

// Tokenize читает весь текст и возвращает лексемы, включая завершающий EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) readNumber(start Pos) (Token, error) {
	begin := l.pos
	first, _ := l.peekRune()
	var n int64
	overflow := false
	for l.pos < len(l.src) {
		r, size := l.peekRune()
		if !unicode.IsDigit(r) {
			break
		}
		l.advance(r, size)
		d := digitValue(r)
		if n > (math.MaxInt64-d)/10 {
			overflow = true
			continue
		}
		n = n*10 + d
	}
	if overflow {
		return Token{}, &LexError{Char: first, Pos: start, Err: ErrLiteralRange}
	}

	return Token{Kind: TokenNumber, Value: l.src[begin:l.pos], Num: n, Pos: start}, nil
}

func (l *Lexer) readWord(start Pos) Token {
	begin := l.pos
	for l.pos < len(l.src) {
		r, size := l.peekRune()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.advance(r, size)
	}
	word := l.src[begin:l.pos]

	if upper := strings.ToUpper(word); IsKeyword(upper) {
		return Token{Kind: TokenKeyword, Value: upper, Pos: start}
	}
	return Token{Kind: TokenIdent, Value: word, Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		r, size := l.peekRune()
		if !unicode.IsSpace(r) {
			return
		}
		l.advance(r, size)
	}
}

func (l *Lexer) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

// advance сдвигает курсор на одну руну, учитывая переводы строк.
func (l *Lexer) advance(r rune, size int) {
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
		return
	}
	l.col++
}

// advanceBytes сдвигает курсор на n ASCII-байт (цифры, операторы).
func (l *Lexer) advanceBytes(n int) {
	l.pos += n
	l.col += n
}

func (l *Lexer) position() Pos {
	return Pos{Line: l.line, Column: l.col, Offset: l.pos}
}

// digitValue возвращает значение десятичной цифры Unicode (категория Nd).
// Цифры Nd идут блоками по десять, начиная с нуля.
func digitValue(r rune) int64 {
	if r >= '0' && r <= '9' {
		return int64(r - '0')
	}
	for _, rg := range unicode.Nd.R16 {
		if lo := rune(rg.Lo); r >= lo && r <= rune(rg.Hi) {
			return int64((r - lo) % 10)
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo := rune(rg.Lo); r >= lo && r <= rune(rg.Hi) {
			return int64((r - lo) % 10)
		}
	}
	return 0
}
