package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run уже взят другим воркером или отменён.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrRunAbandoned — текст ошибки run, который завис в RUNNING.
	ErrRunAbandoned = errors.New("run abandoned: worker stopped before saving the result")
)
