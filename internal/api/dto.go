package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
)

// Saga DTOs

// ExecutionResponse — ответ с результатом саги.
type ExecutionResponse struct {
	ID            uuid.UUID          `json:"id"`
	CustomerID    string             `json:"customer_id"`
	State         domain.SagaState   `json:"state"`
	Trail         []domain.SagaState `json:"trail"`
	Results       domain.ResultsMap  `json:"results"`
	Summary       *domain.Report     `json:"summary,omitempty"`
	WorkflowSteps []string           `json:"workflow_steps"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
	DurationMs    int64              `json:"duration_ms"`
}

// ExecutionFromDomain конвертирует domain.Execution в ExecutionResponse.
func ExecutionFromDomain(e *domain.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:            e.ID,
		CustomerID:    e.Config.CustomerID,
		State:         e.State,
		Trail:         e.Trail,
		Results:       e.Results,
		Summary:       e.Report,
		WorkflowSteps: e.WorkflowSteps,
		StartedAt:     e.StartedAt,
		FinishedAt:    e.FinishedAt,
		DurationMs:    e.Duration().Milliseconds(),
	}
}

// RetryStepRequest — запрос на повтор шага.
type RetryStepRequest struct {
	// Step — ключ шага (payment, payment_processing, ...).
	Step string `json:"step"`

	// Channel — канал эскалации: email (default), sms, call.
	Channel string `json:"channel,omitempty"`

	Config        domain.WorkflowConfig `json:"config"`
	PriorAttempts int                   `json:"prior_attempts,omitempty"`
}

// RetryResponse — ответ с результатом повтора.
type RetryResponse struct {
	Step          domain.StepKind `json:"step"`
	Success       bool            `json:"success"`
	Result        domain.Outcome  `json:"result"`
	Channel       domain.Channel  `json:"notification_channel"`
	Escalation    domain.Outcome  `json:"notification_result"`
	WorkflowSteps []string        `json:"workflow_steps"`
}

// RetryFromDomain конвертирует domain.RetryResult в RetryResponse.
func RetryFromDomain(r *domain.RetryResult) RetryResponse {
	return RetryResponse{
		Step:          r.Step,
		Success:       r.Outcome.Success(),
		Result:        r.Outcome,
		Channel:       r.Channel,
		Escalation:    r.Escalation,
		WorkflowSteps: r.WorkflowSteps,
	}
}

// Service DTOs

// ServiceResponse — описание провайдера шага.
type ServiceResponse struct {
	Step        domain.StepKind `json:"step"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Policy      string          `json:"failure_policy"`
	Calls       int64           `json:"calls"`
	Stateful    bool            `json:"stateful"`
	Retryable   bool            `json:"retryable"`
}

// ServiceFromInfo конвертирует steps.ServiceInfo в ServiceResponse.
func ServiceFromInfo(info steps.ServiceInfo, retryable bool) ServiceResponse {
	return ServiceResponse{
		Step:        info.Kind,
		Title:       info.Title,
		Description: info.Description,
		Policy:      info.Policy,
		Calls:       info.Calls,
		Stateful:    info.Stateful,
		Retryable:   retryable,
	}
}

// ResetResponse — ответ на сброс счётчиков.
type ResetResponse struct {
	Status  string    `json:"status"`
	ResetAt time.Time `json:"reset_at"`
}
