package engine

// Parser — рекурсивный спуск с одним токеном предпросмотра.
//
// Грамматика инструкций (выбор по текущему токену):
//
//	CITESTE ident
//	DECLAR ident VALOARE expr
//	SCRIE expr
//	DACA cond ATUNCI block [ALTFEL block] SFARSIT
//	CATTIMP cond EXECUTA block SFARSIT
//	ident <- expr
//
// Условия и выражения (от низшего приоритета к высшему):
//
//	cond   := and (SAU and)*
//	and    := simple (SI simple)*
//	simple := expr relop expr
//	expr   := term (("+"|"-") term)*
//	term   := factor (("*"|"/"|"%") factor)*
//	factor := NUMBER | IDENT
//
// Восстановления после ошибок нет: разбор прекращается на первой ошибке.
type Parser struct {
	tokens []Token
	next   int
	cur    Token
}

// NewParser создаёт парсер над готовым списком лексем, завершённым EOF.
func NewParser(tokens []Token) *Parser {
	p := &Parser{tokens: tokens}
	p.advance()
	return p
}

// Parse разбирает исходный текст целиком.
// Текст сначала полностью делится на лексемы, поэтому лексическая ошибка
// в любом месте важнее синтаксической.
func Parse(src string) (*Program, error) {
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseProgram()
}

// ParseProgram читает инструкции до EOF.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for p.cur.Kind != TokenEOF {
		instr, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, instr)
	}
	return prog, nil
}

// advance переходит к следующей лексеме. На EOF курсор остаётся.
func (p *Parser) advance() {
	if p.next < len(p.tokens) {
		p.cur = p.tokens[p.next]
		p.next++
	}
}

// expect проверяет текущий токен и переходит к следующему.
func (p *Parser) expect(kind TokenKind, value string) (Token, error) {
	tok := p.cur
	if !tok.Is(kind, value) {
		return Token{}, &SyntaxError{Expected: value, Found: tok}
	}
	p.advance()
	return tok, nil
}

func (p *Parser) expectIdent() (Token, error) {
	tok := p.cur
	if tok.Kind != TokenIdent {
		return Token{}, &SyntaxError{Expected: "identifier", Found: tok}
	}
	p.advance()
	return tok, nil
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Is(TokenKeyword, kw)
}

func (p *Parser) parseStatement() (Instr, error) {
	tok := p.cur

	if tok.Kind == TokenIdent {
		return p.parseAssign()
	}
	if tok.Kind != TokenKeyword {
		return nil, &SyntaxError{Expected: "statement", Found: tok}
	}

	switch tok.Value {
	case KwRead:
		return p.parseInput()
	case KwDeclare:
		return p.parseDeclare()
	case KwWrite:
		return p.parseOutput()
	case KwIf:
		return p.parseIf()
	case KwWhile:
		return p.parseWhile()
	default:
		return nil, &SyntaxError{Expected: "statement", Found: tok}
	}
}

func (p *Parser) parseInput() (Instr, error) {
	kw := p.cur
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &Input{Var: name.Value, At: kw.Pos}, nil
}

func (p *Parser) parseDeclare() (Instr, error) {
	kw := p.cur
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, KwValue); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Declare{Var: name.Value, Value: value, At: kw.Pos}, nil
}

func (p *Parser) parseOutput() (Instr, error) {
	kw := p.cur
	p.advance()
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Output{Value: value, At: kw.Pos}, nil
}

func (p *Parser) parseAssign() (Instr, error) {
	name := p.cur
	p.advance()
	if _, err := p.expect(TokenOp, OpAssign); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Assign{Var: name.Value, Value: value, At: name.Pos}, nil
}

func (p *Parser) parseIf() (Instr, error) {
	kw := p.cur
	p.advance()
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, KwThen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var els Block
	if p.atKeyword(KwElse) {
		p.advance()
		if els, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(TokenKeyword, KwEnd); err != nil {
		return nil, err
	}
	return &If{Cond: cond, Then: then, Else: els, At: kw.Pos}, nil
}

func (p *Parser) parseWhile() (Instr, error) {
	kw := p.cur
	p.advance()
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, KwDo); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, KwEnd); err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body, At: kw.Pos}, nil
}

// parseBlock читает инструкции до SFARSIT или ALTFEL.
// Сам терминатор не поглощается — его разбирает вызывающий.
func (p *Parser) parseBlock() (Block, error) {
	var block Block
	for !p.atKeyword(KwEnd) && !p.atKeyword(KwElse) {
		if p.cur.Kind == TokenEOF {
			return nil, &SyntaxError{Expected: KwEnd, Found: p.cur}
		}
		instr, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block = append(block, instr)
	}
	return block, nil
}

func (p *Parser) parseCond() (Cond, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword(KwOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Cond, error) {
	left, err := p.parseSimple()
	if err != nil {
		return nil, err
	}
	for p.atKeyword(KwAnd) {
		p.advance()
		right, err := p.parseSimple()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var relOps = map[string]RelOp{
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

func (p *Parser) parseSimple() (Cond, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	op, ok := relOps[p.cur.Value]
	if p.cur.Kind != TokenOp || !ok {
		return nil, &SyntaxError{Expected: "comparison operator", Found: p.cur}
	}
	p.advance()

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokenOp && (p.cur.Value == "+" || p.cur.Value == "-") {
		opTok := p.cur
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: ArithOp(opTok.Value), Left: left, Right: right, At: opTok.Pos}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == TokenOp && (p.cur.Value == "*" || p.cur.Value == "/" || p.cur.Value == "%") {
		opTok := p.cur
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: ArithOp(opTok.Value), Left: left, Right: right, At: opTok.Pos}
	}
	return left, nil
}

func (p *Parser) parseFactor() (Expr, error) {
	tok := p.cur
	switch tok.Kind {
	case TokenNumber:
		p.advance()
		return &Literal{Value: tok.Num}, nil
	case TokenIdent:
		p.advance()
		return &VarRef{Name: tok.Value}, nil
	default:
		return nil, &SyntaxError{Expected: "number or identifier", Found: tok}
	}
}
