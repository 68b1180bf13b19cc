package steps

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/rates"
)

// Options — настройки Registry.
type Options struct {
	// Rand — источник случайности для всех провайдеров (default: NewRand(0)).
	Rand Rand

	// RateLookup — live-источник курсов. Nil означает всегда fallback.
	RateLookup RateLookup

	// FallbackRates — статическая таблица курсов (default: rates.DefaultTable).
	FallbackRates rates.Table

	// LookupTimeout — таймаут live-запроса курса (default: 5s).
	LookupTimeout time.Duration

	// PaymentQuota — число успешных оплат до исчерпания квоты (default: 3).
	// Отрицательное значение означает нулевую квоту.
	PaymentQuota int

	// FailureRates — переопределение вероятностей отказов.
	// Для analysis и summary игнорируется: их политика фиксирована.
	FailureRates map[domain.StepKind]float64

	// Logger
	Logger *slog.Logger
}

// ServiceInfo — описание провайдера для ListServices.
type ServiceInfo struct {
	Kind        domain.StepKind `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Policy      string          `json:"policy"`
	Calls       int64           `json:"calls"`
	Stateful    bool            `json:"stateful"`
}

// Registry — владелец всех провайдеров и состояния квоты.
//
// Вызывающий код получает провайдеры только через GetService.
// Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.StepKind]Provider
	quota     *QuotaState
	logger    *slog.Logger
}

// NewRegistry создаёт реестр со всеми стандартными провайдерами.
func NewRegistry(opts Options) *Registry {
	rnd := opts.Rand
	if rnd == nil {
		rnd = NewRand(0)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	quota := opts.PaymentQuota
	if quota == 0 {
		quota = DefaultPaymentQuota
	}

	failure := DefaultFailureRates()
	for kind, rate := range opts.FailureRates {
		if _, ok := failure[kind]; ok {
			failure[kind] = rate
		}
	}

	r := &Registry{
		providers: make(map[domain.StepKind]Provider),
		quota:     NewQuotaState(quota),
		logger:    logger,
	}

	r.Register(newAnalysisProvider(logger))
	r.Register(newOrderProvider(failure[domain.StepOrder], rnd, logger))
	r.Register(newCurrencyProvider(opts.RateLookup, opts.FallbackRates, opts.LookupTimeout, failure[domain.StepCurrency], rnd, logger))
	r.Register(newPaymentProvider(r.quota, logger))
	r.Register(newShippingProvider(failure[domain.StepShipping], rnd, logger))
	r.Register(newEmailProvider(failure[domain.StepEmail], rnd, logger))
	r.Register(newSMSProvider(failure[domain.StepSMS], rnd, logger))
	r.Register(newCallProvider(failure[domain.StepCallCenter], rnd, logger))
	r.Register(newSummaryProvider(rnd, logger))

	return r
}

// Register регистрирует провайдер.
// Если провайдер того же вида уже есть, он будет перезаписан.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = p
}

// GetService возвращает провайдер по виду шага.
// Возвращает ErrServiceNotFound, если провайдер не зарегистрирован.
func (r *Registry) GetService(kind domain.StepKind) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, kind)
	}
	return p, nil
}

// Kinds возвращает зарегистрированные виды шагов в каноническом порядке.
func (r *Registry) Kinds() []domain.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.StepKind, 0, len(r.providers))
	for _, k := range domain.AllSteps() {
		if _, ok := r.providers[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// ListServices возвращает описание всех провайдеров.
func (r *Registry) ListServices() []ServiceInfo {
	kinds := r.Kinds()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ServiceInfo, 0, len(kinds))
	for _, k := range kinds {
		p := r.providers[k]
		info := ServiceInfo{
			Kind:        k,
			Title:       k.Title(),
			Description: p.Description(),
			Policy:      p.Policy().String(),
		}
		if c, ok := p.(interface{ Calls() int64 }); ok {
			info.Calls = c.Calls()
		}
		_, info.Stateful = p.Policy().(quotaPolicy)
		infos = append(infos, info)
	}
	return infos
}

// ResetCounters возвращает все провайдеры и квоту в начальное состояние.
func (r *Registry) ResetCounters() {
	old := r.quota.Reset()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if rs, ok := p.(Resetter); ok {
			rs.Reset()
		}
	}

	r.logger.Info("service counters reset", "payment_quota_used", old)
}
