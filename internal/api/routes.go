package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)

	// Programs
	mux.Handle("GET /api/v1/programs", chain(http.HandlerFunc(h.ListPrograms)))
	mux.Handle("POST /api/v1/programs", chain(http.HandlerFunc(h.CreateProgram)))
	mux.Handle("GET /api/v1/programs/{id}", chain(http.HandlerFunc(h.GetProgram)))
	mux.Handle("PUT /api/v1/programs/{id}", chain(http.HandlerFunc(h.UpdateProgram)))
	mux.Handle("DELETE /api/v1/programs/{id}", chain(http.HandlerFunc(h.DeleteProgram)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/programs/{id}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("POST /api/v1/runs/{id}/cancel", chain(http.HandlerFunc(h.CancelRun)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/programs/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))

	// Eval
	mux.Handle("POST /api/v1/eval", chain(http.HandlerFunc(h.Eval)))
}
