package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	PENDING → CANCELLED
type RunStatus string

const (
	// RunStatusPending — run создан и ждёт воркера.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — программа выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — программа завершилась без ошибок.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — лексическая, синтаксическая или runtime ошибка.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён до начала выполнения.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// ParseRunStatus парсит строку в RunStatus.
// Возвращает false для неизвестного значения.
func ParseRunStatus(s string) (RunStatus, bool) {
	switch RunStatus(s) {
	case RunStatusPending, RunStatusRunning, RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return RunStatus(s), true
	default:
		return "", false
	}
}
