package engine

import (
	"fmt"
	"math"
)

// EvalExpr вычисляет выражение. Context не изменяется.
// Левый операнд всегда вычисляется раньше правого.
func EvalExpr(ec *Context, e Expr) (int64, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *VarRef:
		return ec.Get(n.Name), nil

	case *BinaryOp:
		left, err := EvalExpr(ec, n.Left)
		if err != nil {
			return 0, err
		}
		right, err := EvalExpr(ec, n.Right)
		if err != nil {
			return 0, err
		}
		return applyArith(n, left, right)

	default:
		panic(fmt.Sprintf("engine: unknown expression node %T", e))
	}
}

// EvalCond вычисляет условие. SI и SAU вычисляются по короткой схеме:
// правое условие не вычисляется, если результат уже известен по левому.
func EvalCond(ec *Context, c Cond) (bool, error) {
	switch n := c.(type) {
	case *Compare:
		left, err := EvalExpr(ec, n.Left)
		if err != nil {
			return false, err
		}
		right, err := EvalExpr(ec, n.Right)
		if err != nil {
			return false, err
		}
		return compare(n.Op, left, right), nil

	case *Logical:
		left, err := EvalCond(ec, n.Left)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case OpAnd:
			if !left {
				return false, nil
			}
		case OpOr:
			if left {
				return true, nil
			}
		}
		return EvalCond(ec, n.Right)

	default:
		panic(fmt.Sprintf("engine: unknown condition node %T", c))
	}
}

func compare(op RelOp, a, b int64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		panic(fmt.Sprintf("engine: unknown comparison operator %q", op))
	}
}

func applyArith(n *BinaryOp, a, b int64) (int64, error) {
	var (
		v  int64
		ok = true
	)

	switch n.Op {
	case OpAdd:
		v, ok = addInt(a, b)
	case OpSub:
		v, ok = subInt(a, b)
	case OpMul:
		v, ok = mulInt(a, b)
	case OpDiv, OpMod:
		if b == 0 {
			return 0, newRuntimeError(n.At, ErrDivisionByZero,
				fmt.Sprintf("%d %s 0: division by zero", a, n.Op))
		}
		if n.Op == OpDiv {
			v, ok = FloorDiv(a, b)
		} else {
			v = FloorMod(a, b)
		}
	default:
		panic(fmt.Sprintf("engine: unknown arithmetic operator %q", n.Op))
	}

	if !ok {
		return 0, newRuntimeError(n.At, ErrOverflow,
			fmt.Sprintf("%d %s %d overflows int64", a, n.Op, b))
	}
	return v, nil
}

// FloorDiv — деление с округлением к минус бесконечности.
// b != 0; ok == false при переполнении (MinInt64 / -1).
func FloorDiv(a, b int64) (q int64, ok bool) {
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	q = a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q, true
}

// FloorMod — остаток с тем же знаком, что и делитель:
// a == FloorDiv(a, b)*b + FloorMod(a, b). b != 0.
func FloorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func addInt(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func subInt(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}
