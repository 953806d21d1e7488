package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/engine"
)

// ListPrograms возвращает все программы.
// GET /api/v1/programs
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.programs.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ProgramResponse, len(programs))
	for i, p := range programs {
		result[i] = ProgramFromDomain(p)
	}

	List(w, result, len(result))
}

// CreateProgram сохраняет новую программу.
// Текст разбирается до сохранения; программа с ошибкой не сохраняется.
// POST /api/v1/programs
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(w, "name is required")
		return
	}
	if _, err := engine.Parse(req.Source); err != nil {
		InvalidProgram(w, err)
		return
	}

	program := &domain.Program{
		ID:     uuid.New(),
		Name:   name,
		Source: req.Source,
	}
	if HandleRepoError(w, h.logger, h.programs.Create(r.Context(), program), "") {
		return
	}

	h.logger.Info("program created", "program_id", program.ID, "name", program.Name)
	Created(w, ProgramFromDomain(*program))
}

// GetProgram возвращает программу по ID.
// GET /api/v1/programs/{id}
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid program id")
		return
	}

	program, err := h.programs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "program not found") {
		return
	}

	Success(w, ProgramFromDomain(*program))
}

// UpdateProgram меняет имя и/или текст программы.
// PUT /api/v1/programs/{id}
func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid program id")
		return
	}

	var req UpdateProgramRequest
	if !decodeBody(w, r, &req) {
		return
	}

	program, err := h.programs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "program not found") {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(w, "name must not be empty")
			return
		}
		program.Name = name
	}
	if req.Source != nil {
		if _, err := engine.Parse(*req.Source); err != nil {
			InvalidProgram(w, err)
			return
		}
		program.Source = *req.Source
	}

	if HandleRepoError(w, h.logger, h.programs.Update(r.Context(), program), "program not found") {
		return
	}

	Success(w, ProgramFromDomain(*program))
}

// DeleteProgram удаляет программу вместе с её runs и schedules.
// DELETE /api/v1/programs/{id}
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid program id")
		return
	}

	if HandleRepoError(w, h.logger, h.programs.Delete(r.Context(), id), "program not found") {
		return
	}

	NoContent(w)
}
