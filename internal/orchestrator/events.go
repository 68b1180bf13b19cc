package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// Типы событий.
const (
	EventSagaCompleted = "saga.completed"
	EventStepRetried   = "step.retried"
)

// EventSink — получатель событий саги (RabbitMQ, Kafka).
// Ошибки доставки логируются и не влияют на результат запроса.
type EventSink interface {
	PublishEvent(ctx context.Context, eventType, key string, payload any) error
}

// ExecutionStore — хранилище истории прогонов.
type ExecutionStore interface {
	Save(ctx context.Context, exec *domain.Execution) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
}

// SagaCompletedPayload — payload события saga.completed.
type SagaCompletedPayload struct {
	SagaID          uuid.UUID         `json:"saga_id"`
	CustomerID      string            `json:"customer_id"`
	State           domain.SagaState  `json:"state"`
	Results         domain.ResultsMap `json:"results"`
	CompletionRate  float64           `json:"completion_rate"`
	FailedSteps     []domain.StepKind `json:"failed_steps,omitempty"`
	OmittedSteps    []domain.StepKind `json:"omitted_steps,omitempty"`
	DurationSeconds float64           `json:"duration_seconds"`
}

// StepRetriedPayload — payload события step.retried.
type StepRetriedPayload struct {
	Step       domain.StepKind `json:"step"`
	CustomerID string          `json:"customer_id"`
	Success    bool            `json:"success"`
	Attempt    int             `json:"attempt"`
	Channel    domain.Channel  `json:"channel"`
	Escalated  bool            `json:"escalated"`
	At         time.Time       `json:"at"`
}

// publish отправляет событие, если sink настроен.
func (o *Orchestrator) publish(ctx context.Context, eventType, key string, payload any) {
	if o.events == nil {
		return
	}

	// Отправка не должна зависеть от отмены исходного запроса.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.sinkTimeout)
	defer cancel()

	if err := o.events.PublishEvent(ctx, eventType, key, payload); err != nil {
		o.logger.Warn("failed to publish event", "type", eventType, "key", key, "error", err)
	}
}

// persist сохраняет прогон, если хранилище настроено.
func (o *Orchestrator) persist(ctx context.Context, exec *domain.Execution) {
	if o.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.sinkTimeout)
	defer cancel()

	if err := o.store.Save(ctx, exec); err != nil {
		o.logger.Warn("failed to save execution", "saga_id", exec.ID, "error", err)
	}
}

// Find возвращает сохранённый прогон.
func (o *Orchestrator) Find(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	if o.store == nil {
		return nil, ErrHistoryDisabled
	}
	return o.store.Get(ctx, id)
}
