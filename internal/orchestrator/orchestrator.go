package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/summary"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/telemetry"
)

// Default configuration values.
const (
	defaultSinkTimeout = 5 * time.Second
)

// Scope — область видимости состояния провайдеров (квоты оплаты).
type Scope string

const (
	// ScopeProcess — одна Registry на процесс: квота общая для всех запросов.
	ScopeProcess Scope = "process"

	// ScopeRequest — новая Registry на каждый запрос: квота никогда не
	// исчерпывается между запросами.
	ScopeRequest Scope = "request"
)

// ParseScope парсит область видимости. Пустая строка означает ScopeProcess.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeProcess:
		return ScopeProcess, nil
	case ScopeRequest:
		return ScopeRequest, nil
	default:
		return "", fmt.Errorf("unknown quota scope %q", s)
	}
}

// Orchestrator выполняет саги.
//
// Orchestrator:
//   - Проверяет обязательные поля конфигурации
//   - Выполняет шаги в порядке зависимостей через Registry
//   - Пропускает шаги, у которых упала жёсткая зависимость
//   - Параллельно отправляет два уведомления и ждёт оба
//   - Строит итоговый отчёт по финальному ResultsMap
//   - Повторяет отдельные шаги с обязательной эскалацией (retry.go)
type Orchestrator struct {
	registry    *steps.Registry
	newRegistry func() *steps.Registry
	scope       Scope

	events      EventSink
	store       ExecutionStore
	sinkTimeout time.Duration

	// Active sagas — прогоны в процессе выполнения (sagaID → state)
	active map[uuid.UUID]*SagaRun
	mu     sync.RWMutex

	logger *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Registry — Registry процесса. Для ScopeRequest используется только
	// для ListServices и ResetCounters.
	Registry *steps.Registry

	// NewRegistry — фабрика Registry для ScopeRequest
	// и для ScopeProcess, если Registry не задана.
	NewRegistry func() *steps.Registry

	// Scope — область видимости квоты (default: ScopeProcess).
	Scope Scope

	// Events — получатель событий (optional).
	Events EventSink

	// Store — хранилище истории (optional).
	Store ExecutionStore

	// SinkTimeout — таймаут отправки события и сохранения (default: 5s).
	SinkTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	factory := cfg.NewRegistry
	if factory == nil {
		factory = func() *steps.Registry {
			return steps.NewRegistry(steps.Options{Logger: logger})
		}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = factory()
	}

	scope := cfg.Scope
	if scope == "" {
		scope = ScopeProcess
	}

	sinkTimeout := cfg.SinkTimeout
	if sinkTimeout <= 0 {
		sinkTimeout = defaultSinkTimeout
	}

	return &Orchestrator{
		registry:    registry,
		newRegistry: factory,
		scope:       scope,
		events:      cfg.Events,
		store:       cfg.Store,
		sinkTimeout: sinkTimeout,
		active:      make(map[uuid.UUID]*SagaRun),
		logger:      logger,
	}
}

// Scope возвращает область видимости квоты.
func (o *Orchestrator) Scope() Scope {
	return o.scope
}

// Services возвращает описание провайдеров Registry процесса.
func (o *Orchestrator) Services() []steps.ServiceInfo {
	return o.registry.ListServices()
}

// ResetCounters сбрасывает счётчики Registry процесса.
func (o *Orchestrator) ResetCounters() {
	o.registry.ResetCounters()
}

// registryFor возвращает Registry для очередного запроса.
func (o *Orchestrator) registryFor() *steps.Registry {
	if o.scope == ScopeRequest {
		return o.newRegistry()
	}
	return o.registry
}

// Execute выполняет одну сагу.
//
// ValidationError возвращается до первого вызова провайдера.
// Отказы шагов, включая панику провайдера, не являются ошибками:
// они записаны в Execution.Results.
// При отмене ctx возвращается частичный Execution и ErrCancelled.
func (o *Orchestrator) Execute(ctx context.Context, cfg domain.WorkflowConfig) (*domain.Execution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	run := NewSagaRun(cfg)
	logger := telemetry.WithCustomerID(telemetry.WithSagaID(o.logger, run.ID().String()), cfg.CustomerID)
	ctx = telemetry.WithLogger(ctx, logger)

	o.addActive(run)
	defer o.removeActive(run.ID())

	logger.Info("saga started", "items", len(cfg.Items), "currency", cfg.Currency)

	err := o.drive(ctx, o.registryFor(), run)
	if err != nil && !isCancel(err) {
		logger.Error("saga aborted", "state", run.State(), "error", err)
		return nil, err
	}

	exec := run.Snapshot()
	if !exec.IsCancelled() {
		report := summary.Summarize(exec.Config, exec.Results)
		exec.Report = &report
	}

	o.finish(ctx, exec)

	if err != nil {
		logger.Warn("saga cancelled", "attempted", exec.Results.Len())
		return exec, err
	}

	logger.Info("saga finished",
		"completion_rate", exec.Report.CompletionRate,
		"duration", exec.Duration(),
	)
	return exec, nil
}

// drive проходит машину состояний саги.
func (o *Orchestrator) drive(ctx context.Context, reg *steps.Registry, run *SagaRun) error {
	cfg := run.config

	// 1. Анализ: безусловный шаг, считает точную сумму.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	analysis, err := o.call(ctx, reg, steps.AnalysisParams{Config: cfg})
	if err != nil {
		return err
	}
	if err := o.commit(run, analysis, domain.SagaStateAnalyzed); err != nil {
		return err
	}

	total, ok := analysis.FloatValue("estimated_total")
	if !ok {
		total = cfg.Total()
	}

	// 2. Заказ: безусловная попытка.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	order, err := o.call(ctx, reg, orderParams(cfg, total))
	if err != nil {
		return err
	}
	if err := o.commit(run, order, domain.SagaStateOrderAttempted); err != nil {
		return err
	}
	orderID := order.StringValue("order_id")
	orderOK := order.Success() && orderID != ""

	// 3. Конвертация: только после заказа и только для другой валюты.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	if orderOK && cfg.NeedsConversion() {
		conversion, err := o.call(ctx, reg, currencyParams(cfg, total))
		if err != nil {
			return err
		}
		if err := o.commit(run, conversion, domain.SagaStateConversionAttempted); err != nil {
			return err
		}
	} else if err := run.Advance(domain.SagaStateConversionSkipped); err != nil {
		return err
	}

	// 4. Оплата: зависит от заказа.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	var payment domain.Outcome
	if orderOK {
		payment, err = o.call(ctx, reg, paymentParams(cfg, total))
		if err != nil {
			return err
		}
		if err := o.commit(run, payment, domain.SagaStatePaymentAttempted); err != nil {
			return err
		}
	} else if err := run.Advance(domain.SagaStatePaymentSkipped); err != nil {
		return err
	}

	// 5. Отгрузка: зависит от оплаты.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	if orderOK && payment.Success() {
		shipping, err := o.call(ctx, reg, shippingParams(cfg, orderID))
		if err != nil {
			return err
		}
		if err := o.commit(run, shipping, domain.SagaStateFulfillmentAttempted); err != nil {
			return err
		}
	} else if err := run.Advance(domain.SagaStateFulfillmentSkipped); err != nil {
		return err
	}

	// 6. Уведомления: зависят от заказа, но не от оплаты.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	if orderOK {
		if err := o.notify(ctx, reg, run, orderID, payment); err != nil {
			return err
		}
	} else if err := run.Advance(domain.SagaStateNotificationSkipped); err != nil {
		return err
	}

	// 7. Отчёт: безусловный шаг, не повторяется автоматически.
	if err := o.checkpoint(ctx, run); err != nil {
		return err
	}
	report, err := o.call(ctx, reg, steps.SummaryParams{Config: cfg, Results: run.Results()})
	if err != nil {
		return err
	}
	if err := o.commit(run, report, domain.SagaStateSummarized); err != nil {
		return err
	}

	return run.Advance(domain.SagaStateDone)
}

// notify параллельно отправляет подтверждение и оповещение.
// Результаты записываются после того, как завершились оба.
func (o *Orchestrator) notify(ctx context.Context, reg *steps.Registry, run *SagaRun, orderID string, payment domain.Outcome) error {
	cfg := run.config

	var (
		g          errgroup.Group
		email, sms domain.Outcome
	)

	g.Go(func() error {
		var err error
		email, err = o.call(ctx, reg, confirmationParams(cfg, orderID))
		return err
	})
	g.Go(func() error {
		var err error
		sms, err = o.call(ctx, reg, alertParams(cfg, orderID, payment))
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := run.Record(domain.StepEmail, email); err != nil {
		return err
	}
	if err := run.Record(domain.StepSMS, sms); err != nil {
		return err
	}
	return run.Advance(domain.SagaStateNotified)
}

// call вызывает провайдер через Registry.
// Паника провайдера записывается как неуспешный Outcome с ErrProviderFault
// в причине: сага продолжается, уже полученные результаты сохраняются.
func (o *Orchestrator) call(ctx context.Context, reg *steps.Registry, params steps.Params) (domain.Outcome, error) {
	kind := steps.KindOf(params)

	p, err := reg.GetService(kind)
	if err != nil {
		return domain.Outcome{}, err
	}

	logger := telemetry.WithStep(telemetry.FromContext(ctx), string(kind))

	outcome, fault := execute(ctx, p, params)
	if fault != nil {
		logger.Error("provider panicked", "error", fault)
		outcome = domain.Failed(kind, fault.Error())
	}
	observe(outcome)

	if outcome.Success() {
		logger.Debug("step succeeded", "source", outcome.Source())
	} else {
		logger.Warn("step failed", "reason", outcome.ErrorReason())
	}
	return outcome, nil
}

// execute вызывает провайдер, перехватывая панику.
func execute(ctx context.Context, p steps.Provider, params steps.Params) (outcome domain.Outcome, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%w: %s: %v", ErrProviderFault, p.Kind(), r)
		}
	}()
	return p.Execute(ctx, params), nil
}

// commit записывает результат шага и переводит прогон в следующее состояние.
func (o *Orchestrator) commit(run *SagaRun, outcome domain.Outcome, next domain.SagaState) error {
	if err := run.Record(outcome.Step(), outcome); err != nil {
		return err
	}
	return run.Advance(next)
}

// checkpoint проверяет отмену между шагами.
func (o *Orchestrator) checkpoint(ctx context.Context, run *SagaRun) error {
	if ctx.Err() == nil {
		return nil
	}
	if err := run.Advance(domain.SagaStateCancelled); err != nil {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCancelled, context.Cause(ctx))
}

// finish обновляет метрики, сохраняет прогон и публикует событие.
func (o *Orchestrator) finish(ctx context.Context, exec *domain.Execution) {
	telemetry.ExecutionsTotal.WithLabelValues(string(exec.State)).Inc()
	telemetry.ExecutionDuration.Observe(exec.Duration().Seconds())

	o.persist(ctx, exec)

	payload := SagaCompletedPayload{
		SagaID:          exec.ID,
		CustomerID:      exec.Config.CustomerID,
		State:           exec.State,
		Results:         exec.Results,
		DurationSeconds: exec.Duration().Seconds(),
	}
	if exec.Report != nil {
		payload.CompletionRate = exec.Report.CompletionRate
		payload.FailedSteps = exec.Report.FailedSteps
		payload.OmittedSteps = exec.Report.OmittedSteps
	}
	o.publish(ctx, EventSagaCompleted, exec.ID.String(), payload)
}

func isCancel(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// observe обновляет метрики шага.
func observe(outcome domain.Outcome) {
	telemetry.StepOutcomesTotal.WithLabelValues(string(outcome.Step()), telemetry.ResultLabel(outcome.Success())).Inc()
	if outcome.Source() != domain.SourceNone {
		telemetry.RateLookupsTotal.WithLabelValues(string(outcome.Source())).Inc()
	}
}

// addActive добавляет прогон в активные.
func (o *Orchestrator) addActive(run *SagaRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[run.ID()] = run
}

// removeActive удаляет прогон из активных.
func (o *Orchestrator) removeActive(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, id)
}

// ActiveCount возвращает количество выполняющихся прогонов.
func (o *Orchestrator) ActiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.active)
}
