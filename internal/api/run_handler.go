package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/repo"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?program_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{}
	query := r.URL.Query()

	if programIDStr := query.Get("program_id"); programIDStr != "" {
		programID, err := uuid.Parse(programIDStr)
		if err != nil {
			BadRequest(w, "invalid program_id")
			return
		}
		filter.ProgramID = &programID
	}

	if statusStr := query.Get("status"); statusStr != "" {
		status, ok := domain.ParseRunStatus(statusStr)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, filter.Offset, err = pagination(r); err != nil {
		BadRequest(w, err.Error())
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт новый run для программы.
// С ключом идемпотентности повторный запрос возвращает уже созданный run.
// POST /api/v1/programs/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid program id")
		return
	}

	var req CreateRunRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Проверяем, что программа существует
	program, err := h.programs.GetByID(r.Context(), programID)
	if HandleRepoError(w, h.logger, err, "program not found") {
		return
	}

	if req.IdempotencyKey != "" {
		existing, err := h.runs.GetByIdempotencyKey(r.Context(), programID, req.IdempotencyKey)
		if err == nil {
			Success(w, RunFromDomain(*existing))
			return
		}
		if !errors.Is(err, repo.ErrNotFound) {
			InternalError(w, h.logger, err)
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		ProgramID:      program.ID,
		Status:         domain.RunStatusPending,
		Inputs:         req.Inputs,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := h.runs.Create(r.Context(), run); err != nil {
		// Параллельный запрос с тем же ключом успел раньше
		if errors.Is(err, repo.ErrAlreadyExists) {
			existing, getErr := h.runs.GetByIdempotencyKey(r.Context(), programID, req.IdempotencyKey)
			if getErr == nil {
				Success(w, RunFromDomain(*existing))
				return
			}
		}
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID, run.ProgramID); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelRun отменяет run, который ещё не взят воркером.
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.Cancel(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// pagination читает limit и offset из query.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		limit = min(limit, maxPageLimit)
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset")
		}
	}
	return limit, offset, nil
}
