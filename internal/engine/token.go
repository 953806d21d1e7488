package engine

import (
	"fmt"
	"strconv"
)

// TokenKind — тип лексемы.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNumber
	TokenIdent
	TokenKeyword
	TokenOp
)

// String возвращает имя типа лексемы.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "NUMBER"
	case TokenIdent:
		return "IDENT"
	case TokenKeyword:
		return "KEYWORD"
	case TokenOp:
		return "OP"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Ключевые слова языка. Распознаются без учёта регистра,
// в токене всегда хранится каноническое написание в верхнем регистре.
const (
	KwRead    = "CITESTE"
	KwDeclare = "DECLAR"
	KwValue   = "VALOARE"
	KwIf      = "DACA"
	KwThen    = "ATUNCI"
	KwElse    = "ALTFEL"
	KwWhile   = "CATTIMP"
	KwDo      = "EXECUTA"
	KwEnd     = "SFARSIT"
	KwWrite   = "SCRIE"
	KwAnd     = "SI"
	KwOr      = "SAU"
)

var keywords = map[string]bool{
	KwRead:    true,
	KwDeclare: true,
	KwValue:   true,
	KwIf:      true,
	KwThen:    true,
	KwElse:    true,
	KwWhile:   true,
	KwDo:      true,
	KwEnd:     true,
	KwWrite:   true,
	KwAnd:     true,
	KwOr:      true,
}

// IsKeyword проверяет, является ли слово (в верхнем регистре) ключевым.
func IsKeyword(word string) bool {
	return keywords[word]
}

// OpAssign — оператор присваивания.
const OpAssign = "<-"

// operators — кандидаты для операторов. Двухсимвольные стоят первыми,
// чтобы "<=" никогда не разбивался на "<" и "=".
var operators = []string{
	OpAssign, "==", "!=", "<=", ">=",
	"<", ">", "+", "-", "*", "/", "%",
}

// Pos — позиция в исходном тексте. Line и Column считаются с 1, Offset — в байтах с 0.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// String возвращает позицию в виде "строка:колонка".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token — одна лексема. После создания не изменяется.
type Token struct {
	Kind  TokenKind
	Value string // написание: ключевое слово в верхнем регистре, идентификатор как в тексте
	Num   int64  // значение для TokenNumber
	Pos   Pos
}

// Is проверяет тип и значение токена.
func (t Token) Is(kind TokenKind, value string) bool {
	return t.Kind == kind && t.Value == value
}

// String описывает токен для сообщений об ошибках.
func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return t.Kind.String() + " " + strconv.Quote(t.Value)
}
