package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStep — ключ шага не входит в закрытый набор StepKind.
var ErrUnknownStep = errors.New("unknown step")

// StepKind — вид шага саги.
//
// Набор закрыт: строковые ключи принимаются только на границе транспорта
// через ParseStepKind, внутри системы используются только константы ниже.
type StepKind string

const (
	// StepAnalysis — анализ запроса. Никогда не падает.
	StepAnalysis StepKind = "analysis"

	// StepOrder — создание заказа.
	StepOrder StepKind = "order"

	// StepCurrency — конвертация валюты (live-курс с fallback-таблицей).
	StepCurrency StepKind = "currency_conversion"

	// StepPayment — оплата (квота успешных вызовов).
	StepPayment StepKind = "payment"

	// StepShipping — подтверждение отгрузки.
	StepShipping StepKind = "shipping"

	// StepEmail — основной канал подтверждения.
	StepEmail StepKind = "email"

	// StepSMS — вторичный канал оповещения.
	StepSMS StepKind = "sms"

	// StepCallCenter — эскалация через колл-центр.
	StepCallCenter StepKind = "call_center"

	// StepSummary — итоговый отчёт. Почти никогда не падает.
	StepSummary StepKind = "summary"
)

// AllSteps возвращает все виды шагов в каноническом порядке.
func AllSteps() []StepKind {
	return []StepKind{
		StepAnalysis,
		StepOrder,
		StepCurrency,
		StepPayment,
		StepShipping,
		StepEmail,
		StepSMS,
		StepCallCenter,
		StepSummary,
	}
}

// ParseStepKind парсит строковый ключ шага.
// Принимает также ключи исходных сервисов (order_creation, payment_processing, ...).
func ParseStepKind(s string) (StepKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "order_creation":
		return StepOrder, nil
	case "payment_processing":
		return StepPayment, nil
	case "shipping_confirmation":
		return StepShipping, nil
	case "email_notification":
		return StepEmail, nil
	case "sms_notification":
		return StepSMS, nil
	case "call_center_trigger", "call":
		return StepCallCenter, nil
	case "order_summary":
		return StepSummary, nil
	}

	for _, k := range AllSteps() {
		if string(k) == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
}

// Title возвращает человекочитаемое имя шага.
func (k StepKind) Title() string {
	switch k {
	case StepAnalysis:
		return "Request Analysis"
	case StepOrder:
		return "Order Creation"
	case StepCurrency:
		return "Currency Conversion"
	case StepPayment:
		return "Payment Processing"
	case StepShipping:
		return "Shipping Confirmation"
	case StepEmail:
		return "Email Notification"
	case StepSMS:
		return "SMS Notification"
	case StepCallCenter:
		return "Call Center Escalation"
	case StepSummary:
		return "Order Summary"
	default:
		return string(k)
	}
}

// String возвращает строковый ключ.
func (k StepKind) String() string {
	return string(k)
}

// Channel — канал уведомления для эскалации.
type Channel string

const (
	// ChannelEmail — подтверждение по email.
	ChannelEmail Channel = "email"

	// ChannelSMS — оповещение по SMS.
	ChannelSMS Channel = "sms"

	// ChannelCall — голосовая эскалация через колл-центр.
	ChannelCall Channel = "call"
)

// ErrUnknownChannel — неизвестный канал уведомления.
var ErrUnknownChannel = errors.New("unknown notification channel")

// ParseChannel парсит канал уведомления.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelCall, "voice", "call_center":
		return ChannelCall, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// Step возвращает вид шага, который доставляет уведомление по каналу.
func (c Channel) Step() StepKind {
	switch c {
	case ChannelSMS:
		return StepSMS
	case ChannelCall:
		return StepCallCenter
	default:
		return StepEmail
	}
}
