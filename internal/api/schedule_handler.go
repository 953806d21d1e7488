package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/scheduler"
)

// ListSchedules возвращает список schedules с фильтрацией.
// GET /api/v1/schedules?program_id=...&enabled=...&limit=...&offset=...
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	filter := repo.ScheduleFilter{}
	query := r.URL.Query()

	if programIDStr := query.Get("program_id"); programIDStr != "" {
		programID, err := uuid.Parse(programIDStr)
		if err != nil {
			BadRequest(w, "invalid program_id")
			return
		}
		filter.ProgramID = &programID
	}

	if enabledStr := query.Get("enabled"); enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			BadRequest(w, "invalid enabled")
			return
		}
		filter.Enabled = &enabled
	}

	var err error
	if filter.Limit, filter.Offset, err = pagination(r); err != nil {
		BadRequest(w, err.Error())
		return
	}

	schedules, err := h.schedules.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		result[i] = ScheduleFromDomain(&schedules[i])
	}

	List(w, result, len(result))
}

// CreateSchedule создаёт новый schedule для программы.
// POST /api/v1/programs/{id}/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid program id")
		return
	}

	var req CreateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(w, "name is required")
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	schedule := &domain.Schedule{
		ID:          uuid.New(),
		ProgramID:   programID,
		Name:        name,
		CronExpr:    req.CronExpr,
		IntervalSec: req.IntervalSec,
		Timezone:    timezone,
		Enabled:     enabled,
		Inputs:      req.Inputs,
	}
	if err := scheduler.Validate(schedule); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Проверяем, что программа существует
	_, err = h.programs.GetByID(r.Context(), programID)
	if HandleRepoError(w, h.logger, err, "program not found") {
		return
	}

	if schedule.Enabled {
		if !h.scheduleNextDue(w, schedule) {
			return
		}
	}

	if HandleRepoError(w, h.logger, h.schedules.Create(r.Context(), schedule), "") {
		return
	}

	Created(w, ScheduleFromDomain(schedule))
}

// GetSchedule возвращает schedule по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule))
}

// UpdateSchedule обновляет schedule.
// Изменение времени запуска пересчитывает next_due_at.
// PUT /api/v1/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req UpdateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	timingChanged := req.CronExpr != nil || req.IntervalSec != nil || req.Timezone != nil

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.CronExpr != nil {
		schedule.CronExpr = *req.CronExpr
	}
	if req.IntervalSec != nil {
		schedule.IntervalSec = *req.IntervalSec
	}
	if req.Timezone != nil {
		schedule.Timezone = *req.Timezone
	}
	if req.Inputs != nil {
		schedule.Inputs = *req.Inputs
	}

	if err := scheduler.Validate(schedule); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if timingChanged && schedule.Enabled {
		if !h.scheduleNextDue(w, schedule) {
			return
		}
	}

	if HandleRepoError(w, h.logger, h.schedules.Update(r.Context(), schedule), "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule))
}

// DeleteSchedule удаляет schedule.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	if HandleRepoError(w, h.logger, h.schedules.Delete(r.Context(), id), "schedule not found") {
		return
	}

	NoContent(w)
}

// SetScheduleEnabled включает или выключает schedule.
// При включении время следующего запуска отсчитывается от текущего момента,
// пропущенные за время простоя запуски не догоняются.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req SetEnabledRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !req.Enabled {
		if HandleRepoError(w, h.logger, h.schedules.SetEnabled(r.Context(), id, false), "schedule not found") {
			return
		}
	} else {
		schedule, err := h.schedules.GetByID(r.Context(), id)
		if HandleRepoError(w, h.logger, err, "schedule not found") {
			return
		}
		schedule.Enabled = true
		if !h.scheduleNextDue(w, schedule) {
			return
		}
		if HandleRepoError(w, h.logger, h.schedules.Update(r.Context(), schedule), "schedule not found") {
			return
		}
	}

	// Возвращаем обновлённый schedule
	schedule, err := h.schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule))
}

// scheduleNextDue выставляет next_due_at от текущего момента.
// При ошибке отправляет 400 и возвращает false.
func (h *Handler) scheduleNextDue(w http.ResponseWriter, schedule *domain.Schedule) bool {
	next, err := scheduler.CalculateNextDue(schedule, h.now())
	if err != nil {
		BadRequest(w, err.Error())
		return false
	}
	schedule.NextDueAt = &next
	return true
}
