package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск программы.
//
// Run создаётся когда:
// - Пользователь запускает программу через API/CLI
// - Scheduler создаёт run по расписанию
//
// Воркер разбирает исходный текст программы, выполняет его с Inputs
// в качестве источника для CITESTE и сохраняет вывод и ошибку.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// ProgramID — ссылка на программу.
	ProgramID uuid.UUID `json:"program_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Inputs — значения для инструкций CITESTE (имя переменной → число).
	Inputs map[string]int64 `json:"inputs,omitempty"`

	// Output — строки, выведенные SCRIE. При ошибке содержит
	// вывод, накопленный до неё.
	Output []string `json:"output,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// ErrorKind — класс ошибки: "lexical", "syntax" или "runtime".
	ErrorKind string `json:"error_kind,omitempty"`

	// IdempotencyKey — ключ идемпотентности для предотвращения дубликатов.
	// Для scheduled runs: "{schedule_id}_{next_due_unix}"
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// CanCancel возвращает true, если run ещё не взят воркером.
func (r *Run) CanCancel() bool {
	return r.Status == RunStatusPending
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED с выводом программы.
func (r *Run) MarkSucceeded(output []string) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.Output = output
}

// MarkFailed переводит run в статус FAILED.
// Частичный вывод сохраняется.
func (r *Run) MarkFailed(output []string, kind, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Output = output
	r.ErrorKind = kind
	r.Error = err
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
