package engine

// Дерево разбора состоит из трёх закрытых семейств узлов:
// выражения (Expr), условия (Cond) и инструкции (Instr).
// Каждое семейство — интерфейс с неэкспортируемым методом-маркером,
// поэтому новые варианты можно добавить только в этом пакете.
// После разбора дерево не изменяется и может выполняться многократно.

// ArithOp — арифметический оператор.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
	OpMod ArithOp = "%"
)

// RelOp — оператор сравнения.
type RelOp string

const (
	OpEq RelOp = "=="
	OpNe RelOp = "!="
	OpLt RelOp = "<"
	OpLe RelOp = "<="
	OpGt RelOp = ">"
	OpGe RelOp = ">="
)

// LogicOp — логическая связка условий.
type LogicOp string

const (
	OpAnd LogicOp = KwAnd
	OpOr  LogicOp = KwOr
)

// Expr — выражение, вычисляемое в целое число.
type Expr interface {
	exprNode()
}

// Literal — неотрицательная целая константа.
type Literal struct {
	Value int64
}

// VarRef — ссылка на переменную. Отсутствующая переменная читается как 0.
type VarRef struct {
	Name string
}

// BinaryOp — бинарная арифметическая операция. At — позиция оператора.
type BinaryOp struct {
	Op    ArithOp
	Left  Expr
	Right Expr
	At    Pos
}

func (*Literal) exprNode()  {}
func (*VarRef) exprNode()   {}
func (*BinaryOp) exprNode() {}

// Cond — условие, вычисляемое в bool.
type Cond interface {
	condNode()
}

// Compare — ровно одно сравнение двух выражений.
type Compare struct {
	Op    RelOp
	Left  Expr
	Right Expr
}

// Logical — SI / SAU с вычислением по короткой схеме.
type Logical struct {
	Op    LogicOp
	Left  Cond
	Right Cond
}

func (*Compare) condNode() {}
func (*Logical) condNode() {}

// Instr — инструкция. Выполняется ради побочных эффектов на Context.
type Instr interface {
	instrNode()
	// Position возвращает позицию ключевого слова (или имени переменной для присваивания).
	Position() Pos
}

// Block — упорядоченная последовательность инструкций.
type Block []Instr

// Input — CITESTE <var>.
type Input struct {
	Var string
	At  Pos
}

// Declare — DECLAR <var> VALOARE <expr>.
type Declare struct {
	Var   string
	Value Expr
	At    Pos
}

// Assign — <var> <- <expr>.
type Assign struct {
	Var   string
	Value Expr
	At    Pos
}

// Output — SCRIE <expr>.
type Output struct {
	Value Expr
	At    Pos
}

// If — DACA <cond> ATUNCI <block> [ALTFEL <block>] SFARSIT.
// Else пустой, если ветки ALTFEL нет.
type If struct {
	Cond Cond
	Then Block
	Else Block
	At   Pos
}

// While — CATTIMP <cond> EXECUTA <block> SFARSIT.
type While struct {
	Cond Cond
	Body Block
	At   Pos
}

func (*Input) instrNode()   {}
func (*Declare) instrNode() {}
func (*Assign) instrNode()  {}
func (*Output) instrNode()  {}
func (*If) instrNode()      {}
func (*While) instrNode()   {}

func (n *Input) Position() Pos   { return n.At }
func (n *Declare) Position() Pos { return n.At }
func (n *Assign) Position() Pos  { return n.At }
func (n *Output) Position() Pos  { return n.At }
func (n *If) Position() Pos      { return n.At }
func (n *While) Position() Pos   { return n.At }

// Program — результат разбора: инструкции верхнего уровня.
type Program struct {
	Body Block
}
