package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// Ошибки шагов.
var (
	// ErrServiceNotFound — вид шага не зарегистрирован в Registry.
	ErrServiceNotFound = errors.New("service not found")

	// ErrParamsMismatch — провайдеру переданы параметры другого вида шага.
	ErrParamsMismatch = errors.New("params mismatch")
)

// Provider — исполнитель одного вида шага.
//
// Execute никогда не возвращает ошибку: отказ провайдера — это данные
// (Outcome.Success() == false), а не исключение.
type Provider interface {
	// Kind возвращает вид шага.
	Kind() domain.StepKind

	// Description возвращает описание для ListServices.
	Description() string

	// Policy возвращает политику отказов.
	Policy() FailurePolicy

	// Execute выполняет шаг.
	Execute(ctx context.Context, params Params) domain.Outcome
}

// Resetter — провайдер с внутренними счётчиками.
type Resetter interface {
	Reset()
}

// Params — параметры шага. Набор закрыт: каждому виду шага
// соответствует ровно одна структура.
type Params interface {
	stepKind() domain.StepKind
}

// AnalysisParams — параметры анализа запроса.
type AnalysisParams struct {
	Config domain.WorkflowConfig
}

// OrderParams — параметры создания заказа.
type OrderParams struct {
	CustomerID string
	Items      []domain.Item
	Channel    string

	// Amount — сумма, посчитанная анализом (без округления).
	Amount float64
}

// CurrencyParams — параметры конвертации.
type CurrencyParams struct {
	Amount float64
	From   string
	To     string
}

// PaymentParams — параметры оплаты.
type PaymentParams struct {
	Amount        float64
	Currency      string
	CustomerID    string
	PaymentMethod string
}

// ShippingParams — параметры подтверждения отгрузки.
type ShippingParams struct {
	OrderID string
	Method  string
}

// EmailParams — параметры email-уведомления.
type EmailParams struct {
	Recipient string
	Subject   string
	Message   string
}

// SMSParams — параметры SMS-уведомления.
type SMSParams struct {
	PhoneNumber string
	Message     string
}

// CallParams — параметры эскалации в колл-центр.
type CallParams struct {
	CustomerID  string
	PhoneNumber string
	Reason      string
}

// SummaryParams — параметры итогового отчёта.
type SummaryParams struct {
	Config  domain.WorkflowConfig
	Results domain.ResultsMap
}

func (AnalysisParams) stepKind() domain.StepKind { return domain.StepAnalysis }
func (OrderParams) stepKind() domain.StepKind    { return domain.StepOrder }
func (CurrencyParams) stepKind() domain.StepKind { return domain.StepCurrency }
func (PaymentParams) stepKind() domain.StepKind  { return domain.StepPayment }
func (ShippingParams) stepKind() domain.StepKind { return domain.StepShipping }
func (EmailParams) stepKind() domain.StepKind    { return domain.StepEmail }
func (SMSParams) stepKind() domain.StepKind      { return domain.StepSMS }
func (CallParams) stepKind() domain.StepKind     { return domain.StepCallCenter }
func (SummaryParams) stepKind() domain.StepKind  { return domain.StepSummary }

// KindOf возвращает вид шага, которому предназначены параметры.
func KindOf(p Params) domain.StepKind {
	if p == nil {
		return ""
	}
	return p.stepKind()
}

// base — общая часть провайдеров: счётчик вызовов, политика, логирование.
type base struct {
	kind        domain.StepKind
	description string
	policy      FailurePolicy
	rand        Rand
	logger      *slog.Logger
	calls       atomic.Int64
}

func (b *base) init(kind domain.StepKind, description string, policy FailurePolicy, rnd Rand, logger *slog.Logger) {
	b.kind = kind
	b.description = description
	b.policy = policy
	b.rand = rnd
	b.logger = logger.With("service", string(kind))
}

func (b *base) Kind() domain.StepKind { return b.kind }
func (b *base) Description() string   { return b.description }
func (b *base) Policy() FailurePolicy { return b.policy }
func (b *base) Calls() int64          { return b.calls.Load() }
func (b *base) Reset()                { b.calls.Store(0) }

// simulateFailure увеличивает счётчик вызовов и применяет политику.
func (b *base) simulateFailure(ctx context.Context) bool {
	call := b.calls.Add(1)
	fail := b.policy.ShouldFail(b.rand)
	b.logDecision(ctx, call, fail)
	return fail
}

func (b *base) logDecision(ctx context.Context, call int64, fail bool) {
	if fail {
		b.log(ctx, slog.LevelWarn, "simulated failure", "call", call, "policy", b.policy.String())
	} else {
		b.log(ctx, slog.LevelDebug, "execution allowed", "call", call)
	}
}

// log пишет в лог. Ошибка логирования не должна влиять на результат шага.
func (b *base) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	defer func() { _ = recover() }()
	b.logger.Log(ctx, level, msg, args...)
}

// mismatch возвращает отказ для параметров чужого вида шага.
func (b *base) mismatch(p Params) domain.Outcome {
	return domain.Failed(b.kind, fmt.Sprintf("%s: expected %s params, got %T", ErrParamsMismatch, b.kind, p))
}
