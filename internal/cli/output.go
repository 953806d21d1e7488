package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/shaiso/kalk/internal/engine"
)

// Цвета сообщений об ошибках по классу ошибки программы.
var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	lexicalColor = color.New(color.FgMagenta)
	syntaxColor  = color.New(color.FgYellow)
	runtimeColor = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Lines выводит вывод программы, по одной записи SCRIE на строку.
func (o *Output) Lines(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(o.w, line)
	}
}

// Text выводит текст в stdout как есть.
func (o *Output) Text(s string) {
	fmt.Fprint(o.w, s)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	successColor.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	errorLabel.Fprint(o.errW, "Error: ")
	fmt.Fprintln(o.errW, msg)
}

// ProgramError выводит ошибку программы, окрашенную по её классу.
// Сообщение движка уже начинается с класса: "syntax error at 3:1: ...".
func (o *Output) ProgramError(kind, msg string) {
	kindColor(kind).Fprintln(o.errW, msg)
}

// Report выводит любую ошибку команды.
// Ошибки движка и INVALID_PROGRAM от API окрашиваются по классу.
func (o *Output) Report(err error) {
	if kind := engine.KindOf(err); kind != "" {
		o.ProgramError(string(kind), err.Error())
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind != "" {
		o.ProgramError(apiErr.Kind, apiErr.Message)
		return
	}

	o.Error(err.Error())
}

func kindColor(kind string) *color.Color {
	switch engine.ErrorKind(kind) {
	case engine.KindLexical:
		return lexicalColor
	case engine.KindSyntax:
		return syntaxColor
	default:
		return runtimeColor
	}
}
