package api

import (
	"net/http"
	"time"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/orchestrator"
)

// ListServices возвращает описание провайдеров шагов.
// GET /api/v1/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	infos := h.sagas.Services()

	result := make([]ServiceResponse, len(infos))
	for i, info := range infos {
		result[i] = ServiceFromInfo(info, orchestrator.Retryable(info.Kind))
	}

	List(w, result, len(result))
}

// ResetServices сбрасывает счётчики провайдеров и квоту оплаты.
// POST /api/v1/services/reset
func (h *Handler) ResetServices(w http.ResponseWriter, r *http.Request) {
	h.sagas.ResetCounters()
	Success(w, ResetResponse{Status: "reset", ResetAt: time.Now().UTC()})
}
