package engine

import (
	"errors"
	"fmt"
	"strconv"
)

// Ошибки лексического анализа.
var (
	// ErrUnexpectedChar — символ, не входящий в алфавит языка.
	ErrUnexpectedChar = errors.New("unexpected character")

	// ErrLiteralRange — числовой литерал не помещается в int64.
	ErrLiteralRange = errors.New("integer literal out of range")
)

// Ошибки синтаксического анализа.
var (
	// ErrUnexpectedToken — встречен не тот токен, который ожидался.
	ErrUnexpectedToken = errors.New("unexpected token")
)

// Ошибки выполнения.
var (
	// ErrNoInputProvider — программа выполняет CITESTE, но источник ввода не подключён.
	ErrNoInputProvider = errors.New("no input provider attached")

	// ErrInputFailed — источник ввода вернул ошибку (например, пользователь отменил ввод).
	ErrInputFailed = errors.New("input failed")

	// ErrInputMissing — в фиксированном наборе входных данных нет значения для переменной.
	ErrInputMissing = errors.New("no input value for variable")

	// ErrDivisionByZero — деление или остаток от деления на ноль.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrOverflow — результат арифметики не помещается в int64.
	ErrOverflow = errors.New("integer overflow")

	// ErrCancelled — выполнение прервано через context (таймаут или отмена хостом).
	ErrCancelled = errors.New("execution cancelled")
)

// ErrorKind — категория ошибки: на каком этапе остановилась обработка программы.
type ErrorKind string

const (
	KindLexical ErrorKind = "lexical"
	KindSyntax  ErrorKind = "syntax"
	KindRuntime ErrorKind = "runtime"
)

// LexError — нераспознанный символ (или слишком большой литерал) в исходном тексте.
type LexError struct {
	Char rune // символ, на котором остановился лексер
	Pos  Pos  // позиция символа
	Err  error
}

// Error реализует интерфейс error.
func (e *LexError) Error() string {
	if errors.Is(e.Err, ErrLiteralRange) {
		return fmt.Sprintf("lexical error at %s: %v", e.Pos, e.Err)
	}
	return fmt.Sprintf("lexical error at %s: unexpected character %s", e.Pos, strconv.QuoteRune(e.Char))
}

// Unwrap возвращает базовую ошибку.
func (e *LexError) Unwrap() error {
	return e.Err
}

// SyntaxError — парсер ожидал одно, а встретил другое.
type SyntaxError struct {
	Expected string // что ожидалось: "SFARSIT", "<-", "expression" ...
	Found    Token  // что встретилось на самом деле
}

// Error реализует интерфейс error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: expected %s, found %s", e.Found.Pos, e.Expected, e.Found)
}

// Unwrap возвращает ErrUnexpectedToken.
func (e *SyntaxError) Unwrap() error {
	return ErrUnexpectedToken
}

// RuntimeError — ошибка во время выполнения инструкции.
type RuntimeError struct {
	Reason string // человекочитаемое описание
	Pos    Pos    // позиция инструкции или оператора
	Err    error  // одна из Err* ошибок выполнения
	Cause  error  // исходная ошибка хоста (например, от источника ввода)
}

// Error реализует интерфейс error.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("runtime error at %s: %s", e.Pos, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap возвращает sentinel-ошибку и причину, чтобы работали errors.Is для обеих.
func (e *RuntimeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newRuntimeError(pos Pos, err error, reason string) *RuntimeError {
	return &RuntimeError{Reason: reason, Pos: pos, Err: err}
}

// KindOf определяет категорию ошибки движка.
// Для ошибок, не порождённых движком, возвращает пустую строку.
func KindOf(err error) ErrorKind {
	var lexErr *LexError
	var synErr *SyntaxError
	var rtErr *RuntimeError

	switch {
	case errors.As(err, &lexErr):
		return KindLexical
	case errors.As(err, &synErr):
		return KindSyntax
	case errors.As(err, &rtErr):
		return KindRuntime
	default:
		return ""
	}
}

// PosOf возвращает позицию ошибки движка в исходном тексте.
func PosOf(err error) (Pos, bool) {
	var lexErr *LexError
	var synErr *SyntaxError
	var rtErr *RuntimeError

	switch {
	case errors.As(err, &lexErr):
		return lexErr.Pos, true
	case errors.As(err, &synErr):
		return synErr.Found.Pos, true
	case errors.As(err, &rtErr):
		return rtErr.Pos, true
	default:
		return Pos{}, false
	}
}
