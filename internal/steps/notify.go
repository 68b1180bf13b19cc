package steps

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// smsCost — стоимость одного SMS.
const smsCost = 0.05

// ReasonPaymentFailure — причина эскалации с высоким приоритетом.
const ReasonPaymentFailure = "payment_failure"

// emailProvider — основной канал подтверждения.
type emailProvider struct {
	base
}

func newEmailProvider(rate float64, rnd Rand, logger *slog.Logger) *emailProvider {
	p := &emailProvider{}
	p.init(domain.StepEmail, "Email confirmation", Probability(rate), rnd, logger)
	return p
}

func (p *emailProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(EmailParams)
	if !ok {
		return p.mismatch(params)
	}

	p.log(ctx, slog.LevelInfo, "sending email", "recipient", in.Recipient, "subject", in.Subject)

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "Email delivery failed - SMTP server unavailable")
	}

	return domain.Succeeded(p.kind, map[string]any{
		"email_id":  uuid.New().String(),
		"recipient": in.Recipient,
		"subject":   in.Subject,
		"message":   in.Message,
		"status":    "sent",
		"sent_at":   time.Now().UTC().Format(time.RFC3339),
	})
}

// smsProvider — вторичный канал оповещения.
type smsProvider struct {
	base
}

func newSMSProvider(rate float64, rnd Rand, logger *slog.Logger) *smsProvider {
	p := &smsProvider{}
	p.init(domain.StepSMS, "SMS alert", Probability(rate), rnd, logger)
	return p
}

func (p *smsProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(SMSParams)
	if !ok {
		return p.mismatch(params)
	}

	p.log(ctx, slog.LevelInfo, "sending sms", "phone_number", in.PhoneNumber)

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "SMS delivery failed - carrier network unavailable")
	}

	return domain.Succeeded(p.kind, map[string]any{
		"sms_id":       uuid.New().String(),
		"phone_number": in.PhoneNumber,
		"message":      in.Message,
		"status":       "delivered",
		"cost":         smsCost,
		"sent_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

// callProvider — голосовая эскалация через колл-центр.
type callProvider struct {
	base
	ticket func() string
}

func newCallProvider(rate float64, rnd Rand, logger *slog.Logger) *callProvider {
	p := &callProvider{ticket: mustDigits(5)}
	p.init(domain.StepCallCenter, "Call center escalation", Probability(rate), rnd, logger)
	return p
}

func (p *callProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(CallParams)
	if !ok {
		return p.mismatch(params)
	}

	reason := in.Reason
	if reason == "" {
		reason = ReasonPaymentFailure
	}

	p.log(ctx, slog.LevelInfo, "triggering call", "customer_id", in.CustomerID, "reason", reason)

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "Call center trigger failed - system unavailable")
	}

	priority := "medium"
	if reason == ReasonPaymentFailure {
		priority = "high"
	}

	return domain.Succeeded(p.kind, map[string]any{
		"ticket_id":    "CALL" + p.ticket(),
		"customer_id":  in.CustomerID,
		"phone_number": in.PhoneNumber,
		"reason":       reason,
		"priority":     priority,
		"status":       "queued",
		"created_at":   time.Now().UTC().Format(time.RFC3339),
	})
}
