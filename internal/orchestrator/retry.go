package orchestrator

import (
	"context"
	"fmt"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/telemetry"
)

// RetryRequest — запрос на повтор одного шага.
type RetryRequest struct {
	// Step — повторяемый шаг.
	Step domain.StepKind

	// Config — конфигурация, из которой заново выводятся параметры шага.
	Config domain.WorkflowConfig

	// Channel — канал эскалации (default: email).
	Channel domain.Channel

	// PriorAttempts — сколько попыток уже было (для номера попытки).
	PriorAttempts int
}

// Retryable проверяет, можно ли повторить шаг отдельно.
func Retryable(step domain.StepKind) bool {
	switch step {
	case domain.StepOrder, domain.StepCurrency, domain.StepPayment,
		domain.StepShipping, domain.StepEmail, domain.StepSMS:
		return true
	default:
		return false
	}
}

// RetryStep повторяет один шаг и затем всегда отправляет одно уведомление
// по выбранному каналу, независимо от результата повтора.
//
// Параметры шага выводятся заново из Config, сохранённые результаты
// не используются. Повторы разных шагов независимы: общим состоянием
// являются только счётчики провайдеров в Registry.
func (o *Orchestrator) RetryStep(ctx context.Context, req RetryRequest) (*domain.RetryResult, error) {
	if !Retryable(req.Step) {
		return nil, fmt.Errorf("%w: %s", ErrNotRetryable, req.Step)
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	channel := req.Channel
	if channel == "" {
		channel = domain.ChannelEmail
	}
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return nil, err
	}

	params, err := retryParams(req.Step, req.Config)
	if err != nil {
		return nil, err
	}

	logger := telemetry.WithCustomerID(telemetry.WithStep(o.logger, string(req.Step)), req.Config.CustomerID)
	ctx = telemetry.WithLogger(ctx, logger)
	reg := o.registryFor()

	outcome, err := o.call(ctx, reg, params)
	if err != nil {
		return nil, err
	}
	outcome = outcome.WithAttempt(req.PriorAttempts + 1)

	escalation, err := o.call(ctx, reg, escalationParams(channel, req.Step, req.Config))
	if err != nil {
		return nil, err
	}

	telemetry.RetriesTotal.WithLabelValues(string(req.Step), string(channel)).Inc()

	logger.Info("step retried",
		"success", outcome.Success(),
		"attempt", outcome.Attempt(),
		"channel", channel,
		"escalated", escalation.Success(),
	)

	o.publish(ctx, EventStepRetried, string(req.Step), StepRetriedPayload{
		Step:       req.Step,
		CustomerID: req.Config.CustomerID,
		Success:    outcome.Success(),
		Attempt:    outcome.Attempt(),
		Channel:    channel,
		Escalated:  escalation.Success(),
		At:         outcome.At(),
	})

	return &domain.RetryResult{
		Step:          req.Step,
		Outcome:       outcome,
		Channel:       channel,
		Escalation:    escalation,
		WorkflowSteps: req.Config.StepLabels(),
	}, nil
}
