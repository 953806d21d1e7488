package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// InputProvider — внешний источник значений для CITESTE.
//
// Реализация может блокироваться (например, ждать ввода пользователя)
// и обязана вернуть ошибку при отмене, а не зависнуть.
type InputProvider interface {
	Input(ctx context.Context, name string) (int64, error)
}

// InputFunc — адаптер функции к InputProvider.
type InputFunc func(ctx context.Context, name string) (int64, error)

// Input вызывает f.
func (f InputFunc) Input(ctx context.Context, name string) (int64, error) {
	return f(ctx, name)
}

// MapInput — фиксированный набор входных значений.
// Для переменной без значения возвращает ErrInputMissing.
type MapInput map[string]int64

// Input возвращает значение из набора.
func (m MapInput) Input(_ context.Context, name string) (int64, error) {
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInputMissing, name)
	}
	return v, nil
}

// Context — изменяемое состояние одного запуска программы:
// переменные, журнал вывода и (необязательный) источник ввода.
//
// Context принадлежит ровно одному выполнению; параллельные
// запуски должны использовать разные Context.
type Context struct {
	vars   map[string]int64
	output []string
	input  InputProvider
	steps  int
}

// Option настраивает Context при создании.
type Option func(*Context)

// WithInput подключает источник ввода.
func WithInput(p InputProvider) Option {
	return func(c *Context) {
		c.input = p
	}
}

// WithVars задаёт начальные значения переменных.
func WithVars(vars map[string]int64) Option {
	return func(c *Context) {
		maps.Copy(c.vars, vars)
	}
}

// NewContext создаёт пустой Context.
func NewContext(opts ...Option) *Context {
	c := &Context{vars: make(map[string]int64)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get возвращает значение переменной; отсутствующая переменная равна 0.
func (c *Context) Get(name string) int64 {
	return c.vars[name]
}

// Set записывает значение переменной.
func (c *Context) Set(name string, v int64) {
	c.vars[name] = v
}

// HasInput сообщает, подключён ли источник ввода.
func (c *Context) HasInput() bool {
	return c.input != nil
}

// Output возвращает копию журнала вывода.
func (c *Context) Output() []string {
	return slices.Clone(c.output)
}

// Vars возвращает копию переменных.
func (c *Context) Vars() map[string]int64 {
	return maps.Clone(c.vars)
}

// Steps возвращает количество выполненных инструкций.
func (c *Context) Steps() int {
	return c.steps
}

func (c *Context) emit(line string) {
	c.output = append(c.output, line)
}
