package engine

import (
	"context"
	"fmt"
	"strconv"
)

// Run выполняет программу на Context.
//
// Инструкции выполняются по порядку; первая ошибка прерывает выполнение.
// Вывод, накопленный до ошибки, остаётся в Context.
//
// Движок не ограничивает число итераций CATTIMP. Ограничение задаёт хост
// через ctx: отмена или дедлайн проверяются перед каждой инструкцией
// и каждой итерацией цикла и дают RuntimeError с ErrCancelled.
func Run(ctx context.Context, prog *Program, ec *Context) error {
	return execBlock(ctx, ec, prog.Body)
}

// Exec выполняет одну инструкцию.
func Exec(ctx context.Context, ec *Context, instr Instr) error {
	if err := ctx.Err(); err != nil {
		return cancelled(instr.Position(), err)
	}
	ec.steps++

	switch n := instr.(type) {
	case *Input:
		return execInput(ctx, ec, n)

	case *Declare:
		return execStore(ec, n.Var, n.Value)

	case *Assign:
		return execStore(ec, n.Var, n.Value)

	case *Output:
		v, err := EvalExpr(ec, n.Value)
		if err != nil {
			return err
		}
		ec.emit(strconv.FormatInt(v, 10))
		return nil

	case *If:
		ok, err := EvalCond(ec, n.Cond)
		if err != nil {
			return err
		}
		if ok {
			return execBlock(ctx, ec, n.Then)
		}
		return execBlock(ctx, ec, n.Else)

	case *While:
		for {
			ok, err := EvalCond(ec, n.Cond)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := execBlock(ctx, ec, n.Body); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return cancelled(n.At, err)
			}
		}

	default:
		panic(fmt.Sprintf("engine: unknown instruction node %T", instr))
	}
}

func execBlock(ctx context.Context, ec *Context, block Block) error {
	for _, instr := range block {
		if err := Exec(ctx, ec, instr); err != nil {
			return err
		}
	}
	return nil
}

// execStore — общая реализация DECLAR и присваивания: одно плоское пространство имён.
func execStore(ec *Context, name string, e Expr) error {
	v, err := EvalExpr(ec, e)
	if err != nil {
		return err
	}
	ec.Set(name, v)
	return nil
}

func execInput(ctx context.Context, ec *Context, n *Input) error {
	if ec.input == nil {
		return newRuntimeError(n.At, ErrNoInputProvider,
			fmt.Sprintf("%s %s: no input provider attached", KwRead, n.Var))
	}

	v, err := ec.input.Input(ctx, n.Var)
	if err != nil {
		rtErr := newRuntimeError(n.At, ErrInputFailed,
			fmt.Sprintf("%s %s: input failed", KwRead, n.Var))
		rtErr.Cause = err
		return rtErr
	}

	ec.Set(n.Var, v)
	return nil
}

func cancelled(pos Pos, cause error) error {
	rtErr := newRuntimeError(pos, ErrCancelled, "execution cancelled")
	rtErr.Cause = cause
	return rtErr
}
