package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Format печатает программу в каноническом виде: ключевые слова
// в верхнем регистре, отступ блоков — два пробела, по одной инструкции на строку.
//
// Parse(Format(p)) даёт дерево, структурно равное p (позиции могут отличаться).
func Format(prog *Program) string {
	var b strings.Builder
	writeBlock(&b, prog.Body, 0)
	return b.String()
}

// FormatExpr печатает выражение.
func FormatExpr(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		return strconv.FormatInt(n.Value, 10)
	case *VarRef:
		return n.Name
	case *BinaryOp:
		return FormatExpr(n.Left) + " " + string(n.Op) + " " + formatRight(n)
	default:
		panic(fmt.Sprintf("engine: unknown expression node %T", e))
	}
}

// formatRight печатает правый операнд. Скобок в языке нет, а операторы
// левоассоциативны, поэтому правый операнд того же уровня приоритета
// напечатать без изменения дерева нельзя. Парсер такое дерево не строит.
func formatRight(n *BinaryOp) string {
	if r, ok := n.Right.(*BinaryOp); ok && precedence(r.Op) <= precedence(n.Op) {
		panic(fmt.Sprintf("engine: right-nested %q under %q cannot be printed", r.Op, n.Op))
	}
	return FormatExpr(n.Right)
}

func precedence(op ArithOp) int {
	switch op {
	case OpMul, OpDiv, OpMod:
		return 2
	default:
		return 1
	}
}

// FormatCond печатает условие.
func FormatCond(c Cond) string {
	switch n := c.(type) {
	case *Compare:
		return FormatExpr(n.Left) + " " + string(n.Op) + " " + FormatExpr(n.Right)
	case *Logical:
		return FormatCond(n.Left) + " " + string(n.Op) + " " + FormatCond(n.Right)
	default:
		panic(fmt.Sprintf("engine: unknown condition node %T", c))
	}
}

func writeBlock(b *strings.Builder, block Block, depth int) {
	for _, instr := range block {
		writeInstr(b, instr, depth)
	}
}

func writeInstr(b *strings.Builder, instr Instr, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n := instr.(type) {
	case *Input:
		fmt.Fprintf(b, "%s%s %s\n", indent, KwRead, n.Var)
	case *Declare:
		fmt.Fprintf(b, "%s%s %s %s %s\n", indent, KwDeclare, n.Var, KwValue, FormatExpr(n.Value))
	case *Assign:
		fmt.Fprintf(b, "%s%s %s %s\n", indent, n.Var, OpAssign, FormatExpr(n.Value))
	case *Output:
		fmt.Fprintf(b, "%s%s %s\n", indent, KwWrite, FormatExpr(n.Value))
	case *If:
		fmt.Fprintf(b, "%s%s %s %s\n", indent, KwIf, FormatCond(n.Cond), KwThen)
		writeBlock(b, n.Then, depth+1)
		if len(n.Else) > 0 {
			fmt.Fprintf(b, "%s%s\n", indent, KwElse)
			writeBlock(b, n.Else, depth+1)
		}
		fmt.Fprintf(b, "%s%s\n", indent, KwEnd)
	case *While:
		fmt.Fprintf(b, "%s%s %s %s\n", indent, KwWhile, FormatCond(n.Cond), KwDo)
		writeBlock(b, n.Body, depth+1)
		fmt.Fprintf(b, "%s%s\n", indent, KwEnd)
	default:
		panic(fmt.Sprintf("engine: unknown instruction node %T", instr))
	}
}
