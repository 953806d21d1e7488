package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

// ErrInputAborted — пользователь прервал ввод (Ctrl-C или конец потока).
var ErrInputAborted = errors.New("input aborted")

// LineReader читает одну строку с приглашением. Реализация: *liner.State.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// PromptInput — источник ввода для CITESTE, спрашивающий значение у пользователя.
//
// Приглашение имеет вид "x = ". Нечисловой ответ не считается ошибкой:
// пользователь видит подсказку и вводит значение заново.
type PromptInput struct {
	reader LineReader
	errW   io.Writer
}

// NewPromptInput создаёт PromptInput поверх reader; подсказки пишутся в errW.
func NewPromptInput(reader LineReader, errW io.Writer) *PromptInput {
	return &PromptInput{reader: reader, errW: errW}
}

// Input реализует engine.InputProvider.
func (p *PromptInput) Input(ctx context.Context, name string) (int64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		line, err := p.reader.Prompt(name + " = ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return 0, ErrInputAborted
			}
			return 0, fmt.Errorf("read %s: %w", name, err)
		}

		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			fmt.Fprintf(p.errW, "%q is not an integer, try again\n", line)
			continue
		}
		if h, ok := p.reader.(interface{ AppendHistory(string) }); ok {
			h.AppendHistory(line)
		}
		return n, nil
	}
}

// NewTerminal открывает терминал через liner.
// Ctrl-C прерывает ввод вместо завершения процесса.
// Вызывающий обязан вызвать Close.
func NewTerminal() *liner.State {
	term := liner.NewLiner()
	term.SetCtrlCAborts(true)
	return term
}
