package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/engine"
)

// Program DTOs

// CreateProgramRequest — запрос на создание программы.
type CreateProgramRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// UpdateProgramRequest — запрос на обновление программы.
type UpdateProgramRequest struct {
	Name   *string `json:"name,omitempty"`
	Source *string `json:"source,omitempty"`
}

// ProgramResponse — ответ с программой.
type ProgramResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgramFromDomain конвертирует domain.Program в ProgramResponse.
func ProgramFromDomain(p domain.Program) ProgramResponse {
	return ProgramResponse{
		ID:        p.ID,
		Name:      p.Name,
		Source:    p.Source,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	Inputs         map[string]int64 `json:"inputs,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID        `json:"id"`
	ProgramID      uuid.UUID        `json:"program_id"`
	Status         string           `json:"status"`
	Inputs         map[string]int64 `json:"inputs,omitempty"`
	Output         []string         `json:"output"`
	Error          string           `json:"error,omitempty"`
	ErrorKind      string           `json:"error_kind,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	FinishedAt     *time.Time       `json:"finished_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	output := r.Output
	if output == nil {
		output = []string{}
	}
	return RunResponse{
		ID:             r.ID,
		ProgramID:      r.ProgramID,
		Status:         string(r.Status),
		Inputs:         r.Inputs,
		Output:         output,
		Error:          r.Error,
		ErrorKind:      r.ErrorKind,
		IdempotencyKey: r.IdempotencyKey,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string           `json:"name"`
	CronExpr    string           `json:"cron_expr,omitempty"`
	IntervalSec int              `json:"interval_sec,omitempty"`
	Timezone    string           `json:"timezone,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"` // по умолчанию true
	Inputs      map[string]int64 `json:"inputs,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string           `json:"name,omitempty"`
	CronExpr    *string           `json:"cron_expr,omitempty"`
	IntervalSec *int              `json:"interval_sec,omitempty"`
	Timezone    *string           `json:"timezone,omitempty"`
	Inputs      *map[string]int64 `json:"inputs,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID          uuid.UUID        `json:"id"`
	ProgramID   uuid.UUID        `json:"program_id"`
	Name        string           `json:"name"`
	CronExpr    string           `json:"cron_expr,omitempty"`
	IntervalSec int              `json:"interval_sec,omitempty"`
	Timezone    string           `json:"timezone"`
	Enabled     bool             `json:"enabled"`
	NextDueAt   *time.Time       `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time       `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID       `json:"last_run_id,omitempty"`
	Inputs      map[string]int64 `json:"inputs,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		ProgramID:   s.ProgramID,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		Inputs:      s.Inputs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Eval DTOs

// EvalRequest — запрос на синхронное выполнение исходного текста.
type EvalRequest struct {
	Source string           `json:"source"`
	Inputs map[string]int64 `json:"inputs,omitempty"`
}

// EvalError — ошибка программы в ответе eval.
type EvalError struct {
	Kind     engine.ErrorKind `json:"kind"`
	Message  string           `json:"message"`
	Position *engine.Pos      `json:"position,omitempty"`
}

// EvalResponse — результат eval. При runtime ошибке Output содержит вывод до неё.
type EvalResponse struct {
	Output []string   `json:"output"`
	Error  *EvalError `json:"error,omitempty"`
	Steps  int        `json:"steps"`
}
