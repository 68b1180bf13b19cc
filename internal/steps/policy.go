package steps

import (
	"fmt"
	"sync"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// Вероятности отказов по умолчанию.
const (
	DefaultOrderFailureRate    = 0.10
	DefaultShippingFailureRate = 0.10
	DefaultEmailFailureRate    = 0.15
	DefaultSMSFailureRate      = 0.12
	DefaultCallFailureRate     = 0.05

	// DefaultInjectedLookupFailure — доля live-запросов курса,
	// которые принудительно уходят в fallback.
	DefaultInjectedLookupFailure = 0.10

	// DefaultPaymentQuota — сколько оплат проходит после сброса.
	DefaultPaymentQuota = 3

	// SummaryFailureRate — фиксированная вероятность отказа отчёта.
	// Не настраивается.
	SummaryFailureRate = 0.02
)

// DefaultFailureRates возвращает вероятности отказов, которые можно переопределить.
func DefaultFailureRates() map[domain.StepKind]float64 {
	return map[domain.StepKind]float64{
		domain.StepOrder:      DefaultOrderFailureRate,
		domain.StepCurrency:   DefaultInjectedLookupFailure,
		domain.StepShipping:   DefaultShippingFailureRate,
		domain.StepEmail:      DefaultEmailFailureRate,
		domain.StepSMS:        DefaultSMSFailureRate,
		domain.StepCallCenter: DefaultCallFailureRate,
	}
}

// FailurePolicy решает, должен ли очередной вызов провайдера упасть.
type FailurePolicy interface {
	ShouldFail(r Rand) bool
	String() string
}

// Probability — независимый отказ с заданной вероятностью.
type Probability float64

func (p Probability) ShouldFail(r Rand) bool {
	return r.Float64() < float64(p)
}

func (p Probability) String() string {
	return fmt.Sprintf("probability(%.2f)", float64(p))
}

// neverFails — политика шага анализа.
type neverFails struct{}

func (neverFails) ShouldFail(Rand) bool { return false }
func (neverFails) String() string       { return "never" }

// rareFailure — политика итогового отчёта с фиксированной вероятностью.
type rareFailure struct{}

func (rareFailure) ShouldFail(r Rand) bool { return r.Float64() < SummaryFailureRate }
func (rareFailure) String() string         { return fmt.Sprintf("fixed(%.2f)", SummaryFailureRate) }

// quotaPolicy — успех на первых N вызовах после сброса, затем отказ на каждом.
type quotaPolicy struct {
	state *QuotaState
}

func (q quotaPolicy) ShouldFail(Rand) bool {
	_, ok := q.state.Take()
	return !ok
}

func (q quotaPolicy) String() string {
	used, limit := q.state.Snapshot()
	return fmt.Sprintf("quota(%d/%d)", used, limit)
}

// externalPolicy — live-запрос с fallback. Отказ означает
// принудительный переход на статическую таблицу, а не падение шага.
type externalPolicy struct {
	injected Probability
}

func (e externalPolicy) ShouldFail(r Rand) bool { return e.injected.ShouldFail(r) }

func (e externalPolicy) String() string {
	return fmt.Sprintf("external(fallback, injected %.2f)", float64(e.injected))
}

// QuotaState — счётчик квоты успешных вызовов.
//
// Принадлежит Registry, а не провайдеру: область видимости квоты
// (процесс или запрос) определяется временем жизни Registry.
type QuotaState struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewQuotaState создаёт квоту на limit вызовов.
func NewQuotaState(limit int) *QuotaState {
	if limit < 0 {
		limit = 0
	}
	return &QuotaState{limit: limit}
}

// Take занимает одну единицу квоты и возвращает значение счётчика,
// прочитанное под той же блокировкой. ok == false, если квота исчерпана:
// тогда used равен лимиту.
func (q *QuotaState) Take() (used int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.used >= q.limit {
		return q.used, false
	}
	q.used++
	return q.used, true
}

// Reset возвращает квоту в начальное состояние.
func (q *QuotaState) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	old := q.used
	q.used = 0
	return old
}

// Snapshot возвращает (использовано, лимит).
func (q *QuotaState) Snapshot() (used, limit int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used, q.limit
}
