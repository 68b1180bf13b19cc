package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/orchestrator"
)

// ExecuteSaga выполняет сагу синхронно.
// POST /api/v1/sagas
//
// Ответ 200 даже при упавших шагах; 422 при отсутствии обязательных полей.
func (h *Handler) ExecuteSaga(w http.ResponseWriter, r *http.Request) {
	var cfg domain.WorkflowConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&cfg); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	exec, err := h.sagas.Execute(r.Context(), cfg)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ExecutionFromDomain(exec))
}

// RetryStep повторяет один шаг и отправляет уведомление эскалации.
// POST /api/v1/sagas/retry
func (h *Handler) RetryStep(w http.ResponseWriter, r *http.Request) {
	var req RetryStepRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	step, err := domain.ParseStepKind(req.Step)
	if HandleError(w, h.logger, err) {
		return
	}

	var channel domain.Channel
	if req.Channel != "" {
		channel, err = domain.ParseChannel(req.Channel)
		if HandleError(w, h.logger, err) {
			return
		}
	}

	if req.PriorAttempts < 0 {
		BadRequest(w, "prior_attempts must be non-negative")
		return
	}

	res, err := h.sagas.RetryStep(r.Context(), orchestrator.RetryRequest{
		Step:          step,
		Config:        req.Config,
		Channel:       channel,
		PriorAttempts: req.PriorAttempts,
	})
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, RetryFromDomain(res))
}

// GetSaga возвращает сохранённый прогон.
// GET /api/v1/sagas/{id}
func (h *Handler) GetSaga(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid saga id")
		return
	}

	exec, err := h.sagas.Find(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ExecutionFromDomain(exec))
}

// ListSagas возвращает последние прогоны клиента.
// GET /api/v1/sagas?customer_id=...&limit=...
func (h *Handler) ListSagas(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		NotFound(w, "execution history is disabled")
		return
	}

	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		BadRequest(w, "customer_id is required")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	execs, err := h.history.ListByCustomer(r.Context(), customerID, limit)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]ExecutionResponse, len(execs))
	for i := range execs {
		result[i] = ExecutionFromDomain(&execs[i])
	}

	List(w, result, len(result))
}
