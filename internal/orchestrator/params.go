package orchestrator

import (
	"fmt"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
)

// defaultPhone — номер, если интерпретатор не извлёк телефон клиента.
const defaultPhone = "+1-555-0123"

// Параметры шагов строятся только из конфигурации и результатов
// предыдущих шагов, без обращения к глобальному состоянию.

func orderParams(cfg domain.WorkflowConfig, total float64) steps.OrderParams {
	return steps.OrderParams{
		CustomerID: cfg.CustomerID,
		Items:      cfg.Items,
		Channel:    cfg.Channel,
		Amount:     total,
	}
}

func currencyParams(cfg domain.WorkflowConfig, total float64) steps.CurrencyParams {
	to := cfg.TargetCurrency
	if to == "" {
		to = cfg.Currency
	}
	return steps.CurrencyParams{Amount: total, From: cfg.Currency, To: to}
}

func paymentParams(cfg domain.WorkflowConfig, total float64) steps.PaymentParams {
	return steps.PaymentParams{
		Amount:        total,
		Currency:      cfg.Currency,
		CustomerID:    cfg.CustomerID,
		PaymentMethod: cfg.PaymentMethod,
	}
}

func shippingParams(cfg domain.WorkflowConfig, orderID string) steps.ShippingParams {
	return steps.ShippingParams{OrderID: orderID, Method: cfg.ShippingMethod}
}

func confirmationParams(cfg domain.WorkflowConfig, orderID string) steps.EmailParams {
	return steps.EmailParams{
		Recipient: cfg.CustomerEmail,
		Subject:   "Order Confirmation - " + orderID,
	}
}

func alertParams(cfg domain.WorkflowConfig, orderID string, payment domain.Outcome) steps.SMSParams {
	msg := fmt.Sprintf("Order %s received, payment could not be processed", orderID)
	if payment.Success() {
		amount, _ := payment.FloatValue("amount")
		msg = fmt.Sprintf("Order %s confirmed. Total: %.2f %s", orderID, amount, payment.StringValue("currency"))
	}
	return steps.SMSParams{PhoneNumber: phoneOf(cfg), Message: msg}
}

// retryParams заново выводит параметры шага из конфигурации.
func retryParams(step domain.StepKind, cfg domain.WorkflowConfig) (steps.Params, error) {
	total := cfg.Total()

	switch step {
	case domain.StepOrder:
		return orderParams(cfg, total), nil
	case domain.StepCurrency:
		return currencyParams(cfg, total), nil
	case domain.StepPayment:
		return paymentParams(cfg, total), nil
	case domain.StepShipping:
		return shippingParams(cfg, cfg.OrderID), nil
	case domain.StepEmail:
		return steps.EmailParams{Recipient: cfg.CustomerEmail, Subject: "Service Retry Notification"}, nil
	case domain.StepSMS:
		return steps.SMSParams{PhoneNumber: phoneOf(cfg), Message: "Service retry notification"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotRetryable, step)
	}
}

// escalationParams строит параметры уведомления эскалации.
// Провайдер выбирается по шагу канала (Channel.Step).
func escalationParams(channel domain.Channel, step domain.StepKind, cfg domain.WorkflowConfig) steps.Params {
	switch channel.Step() {
	case domain.StepSMS:
		return steps.SMSParams{
			PhoneNumber: phoneOf(cfg),
			Message:     "Service retry initiated for " + step.Title(),
		}
	case domain.StepCallCenter:
		reason := "service_retry"
		if step == domain.StepPayment {
			reason = steps.ReasonPaymentFailure
		}
		return steps.CallParams{CustomerID: cfg.CustomerID, PhoneNumber: phoneOf(cfg), Reason: reason}
	default:
		return steps.EmailParams{
			Recipient: cfg.CustomerEmail,
			Subject:   "Service Retry Alert - " + step.Title(),
		}
	}
}

func phoneOf(cfg domain.WorkflowConfig) string {
	if cfg.CustomerPhone == "" {
		return defaultPhone
	}
	return cfg.CustomerPhone
}
