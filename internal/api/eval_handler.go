package api

import (
	"net/http"

	"github.com/shaiso/kalk/internal/engine"
	"github.com/shaiso/kalk/internal/telemetry"
)

// Eval синхронно выполняет исходный текст без сохранения.
// Ошибка программы — штатный результат (200 с полем error), а не ошибка запроса.
// POST /api/v1/eval
func (h *Handler) Eval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res := h.executor.Execute(r.Context(), req.Source, req.Inputs)

	resp := EvalResponse{
		Output: res.Output,
		Steps:  res.Steps,
	}
	if resp.Output == nil {
		resp.Output = []string{}
	}
	if res.Err != nil {
		resp.Error = &EvalError{Kind: res.Kind, Message: res.Err.Error()}
		if pos, ok := engine.PosOf(res.Err); ok {
			resp.Error.Position = &pos
		}
		telemetry.ProgramErrorsTotal.WithLabelValues(string(res.Kind)).Inc()
	}

	h.logger.Debug("eval finished",
		"steps", res.Steps,
		"output_lines", len(res.Output),
		"error_kind", res.Kind,
		"duration", res.Elapsed,
	)
	Success(w, resp)
}
