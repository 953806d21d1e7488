package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/kalk/internal/engine"
)

const defaultRunTimeout = 10 * time.Second

// Result — итог выполнения одной программы.
type Result struct {
	// Output — строки SCRIE. При ошибке — вывод до неё.
	Output []string

	// Err — ошибка разбора или выполнения; nil при успехе.
	Err error

	// Kind — класс ошибки; пуст при успехе.
	Kind engine.ErrorKind

	// Steps — число выполненных инструкций.
	Steps int

	// Elapsed — время разбора и выполнения.
	Elapsed time.Duration
}

// Executor разбирает и выполняет исходный текст программы.
//
// Ввод для CITESTE берётся из фиксированного набора значений run;
// отсутствующее значение — runtime ошибка. Выполнение ограничено Timeout:
// бесконечный CATTIMP прерывается с ErrCancelled.
type Executor struct {
	Timeout time.Duration
}

// Execute выполняет программу. Ошибки программы возвращаются в Result,
// а не как error: для воркера это штатный исход run.
func (e *Executor) Execute(ctx context.Context, source string, inputs map[string]int64) Result {
	start := time.Now()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prog, err := engine.Parse(source)
	if err != nil {
		return Result{Err: err, Kind: engine.KindOf(err), Elapsed: time.Since(start)}
	}

	ec := engine.NewContext(engine.WithInput(engine.MapInput(inputs)))
	err = engine.Run(ctx, prog, ec)
	if errors.Is(err, engine.ErrCancelled) && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w (time limit %s)", err, timeout)
	}

	res := Result{
		Output:  ec.Output(),
		Err:     err,
		Steps:   ec.Steps(),
		Elapsed: time.Since(start),
	}
	if err != nil {
		res.Kind = engine.KindOf(err)
	}
	return res
}
