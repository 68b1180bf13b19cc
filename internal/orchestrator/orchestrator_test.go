package orchestrator

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
)

// funcProvider — провайдер с подменяемым поведением.
type funcProvider struct {
	kind domain.StepKind
	fn   func(ctx context.Context, p steps.Params) domain.Outcome
}

func (f *funcProvider) Kind() domain.StepKind             { return f.kind }
func (f *funcProvider) Description() string               { return "test provider" }
func (f *funcProvider) Policy() steps.FailurePolicy       { return steps.Probability(0) }
func (f *funcProvider) Execute(ctx context.Context, p steps.Params) domain.Outcome {
	return f.fn(ctx, p)
}

// recordingSink запоминает опубликованные события.
type recordingSink struct {
	mu     sync.Mutex
	events []string
	keys   []string
	err    error
}

func (s *recordingSink) PublishEvent(ctx context.Context, eventType, key string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
	s.keys = append(s.keys, key)
	return s.err
}

// memoryStore — ExecutionStore в памяти.
type memoryStore struct {
	mu    sync.Mutex
	execs map[uuid.UUID]*domain.Execution
}

func (m *memoryStore) Save(ctx context.Context, exec *domain.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execs == nil {
		m.execs = make(map[uuid.UUID]*domain.Execution)
	}
	m.execs[exec.ID] = exec
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.execs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return exec, nil
}

func testConfig() domain.WorkflowConfig {
	return domain.WorkflowConfig{
		CustomerID:    "CUST-1",
		CustomerEmail: "c@example.com",
		Items:         []domain.Item{{Name: "Widget", Price: 50, Quantity: 2}},
		Currency:      "USD",
		Channel:       "B2C",
	}
}

func newTestOrchestrator(opts steps.Options) (*Orchestrator, *steps.Registry) {
	reg := steps.NewRegistry(opts)
	return New(Config{Registry: reg}), reg
}

func keys(r domain.ResultsMap) []domain.StepKind {
	return r.Keys()
}

// --- Execute Tests ---

func TestExecute_AllSucceed(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.StepKind{
		domain.StepAnalysis, domain.StepOrder, domain.StepPayment,
		domain.StepShipping, domain.StepEmail, domain.StepSMS, domain.StepSummary,
	}
	if diff := cmp.Diff(want, keys(exec.Results)); diff != "" {
		t.Errorf("results keys mismatch (-want +got):\n%s", diff)
	}

	wantTrail := []domain.SagaState{
		domain.SagaStatePending, domain.SagaStateAnalyzed, domain.SagaStateOrderAttempted,
		domain.SagaStateConversionSkipped, domain.SagaStatePaymentAttempted,
		domain.SagaStateFulfillmentAttempted, domain.SagaStateNotified,
		domain.SagaStateSummarized, domain.SagaStateDone,
	}
	if diff := cmp.Diff(wantTrail, exec.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	if exec.State != domain.SagaStateDone {
		t.Errorf("state = %s, want DONE", exec.State)
	}
	if exec.Report == nil || exec.Report.CompletionRate != 100 {
		t.Errorf("unexpected report: %+v", exec.Report)
	}

	analysis, _ := exec.Results.Get(domain.StepAnalysis)
	if total, _ := analysis.FloatValue("estimated_total"); total != 100.00 {
		t.Errorf("estimated_total = %v, want 100", total)
	}
	payment, _ := exec.Results.Get(domain.StepPayment)
	if amount, _ := payment.FloatValue("amount"); amount != 100.00 {
		t.Errorf("payment amount = %v, want 100", amount)
	}

	order, _ := exec.Results.Get(domain.StepOrder)
	shipping, _ := exec.Results.Get(domain.StepShipping)
	if shipping.StringValue("order_id") != order.StringValue("order_id") {
		t.Error("shipping should use the order id produced by the order step")
	}
}

func TestExecute_OrderFails(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{
		Rand:         steps.FixedRand(0.5),
		FailureRates: map[domain.StepKind]float64{domain.StepOrder: 1},
	})

	cfg := testConfig()
	cfg.TargetCurrency = "EUR"

	exec, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.StepKind{domain.StepAnalysis, domain.StepOrder, domain.StepSummary}
	if diff := cmp.Diff(want, keys(exec.Results)); diff != "" {
		t.Errorf("results keys mismatch (-want +got):\n%s", diff)
	}

	for _, step := range []domain.StepKind{domain.StepCurrency, domain.StepPayment, domain.StepShipping, domain.StepEmail, domain.StepSMS} {
		if exec.Results.Has(step) {
			t.Errorf("%s should be omitted", step)
		}
	}

	if diff := cmp.Diff([]domain.StepKind{domain.StepOrder}, exec.Report.FailedSteps); diff != "" {
		t.Errorf("failed steps mismatch (-want +got):\n%s", diff)
	}
	wantOmitted := []domain.StepKind{domain.StepCurrency, domain.StepPayment, domain.StepShipping, domain.StepEmail, domain.StepSMS}
	if diff := cmp.Diff(wantOmitted, exec.Report.OmittedSteps); diff != "" {
		t.Errorf("omitted steps mismatch (-want +got):\n%s", diff)
	}

	wantTrail := []domain.SagaState{
		domain.SagaStatePending, domain.SagaStateAnalyzed, domain.SagaStateOrderAttempted,
		domain.SagaStateConversionSkipped, domain.SagaStatePaymentSkipped,
		domain.SagaStateFulfillmentSkipped, domain.SagaStateNotificationSkipped,
		domain.SagaStateSummarized, domain.SagaStateDone,
	}
	if diff := cmp.Diff(wantTrail, exec.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_PaymentFails(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99), PaymentQuota: -1})

	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.StepKind{
		domain.StepAnalysis, domain.StepOrder, domain.StepPayment,
		domain.StepEmail, domain.StepSMS, domain.StepSummary,
	}
	if diff := cmp.Diff(want, keys(exec.Results)); diff != "" {
		t.Errorf("results keys mismatch (-want +got):\n%s", diff)
	}

	sms, _ := exec.Results.Get(domain.StepSMS)
	if !strings.Contains(sms.StringValue("message"), "payment could not be processed") {
		t.Errorf("sms should inform about payment failure, got %q", sms.StringValue("message"))
	}

	if diff := cmp.Diff([]domain.StepKind{domain.StepShipping}, exec.Report.OmittedSteps); diff != "" {
		t.Errorf("omitted steps mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Conversion(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	cfg := testConfig()
	cfg.TargetCurrency = "EUR"

	exec, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := keys(exec.Results)
	if got[2] != domain.StepCurrency || got[3] != domain.StepPayment {
		t.Fatalf("conversion should run between order and payment, got %v", got)
	}

	conv, _ := exec.Results.Get(domain.StepCurrency)
	if conv.Source() != domain.SourceFallback {
		t.Errorf("source = %q, want fallback without live lookup", conv.Source())
	}

	want := &domain.ConversionInfo{Amount: 85, Currency: "EUR", ExchangeRate: 0.85, Source: domain.SourceFallback}
	if diff := cmp.Diff(want, exec.Report.Conversion); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_SummaryFailureStillRecorded(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.01)})

	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, ok := exec.Results.Get(domain.StepSummary)
	if !ok {
		t.Fatal("summary must always be present")
	}
	if s.Success() {
		t.Error("summary should fail below its fixed rate")
	}
	if exec.Report == nil {
		t.Fatal("report is computed even when the summary step fails")
	}
	if exec.Report.AttemptedSteps != 3 || exec.Report.SuccessfulSteps != 1 {
		t.Errorf("report counts = %d/%d", exec.Report.SuccessfulSteps, exec.Report.AttemptedSteps)
	}
}

func TestExecute_Validation(t *testing.T) {
	o, reg := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	cfg := testConfig()
	cfg.CustomerID = ""
	cfg.Items = nil

	exec, err := o.Execute(context.Background(), cfg)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if exec != nil {
		t.Error("no execution should be returned on validation error")
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Missing) != 2 {
		t.Errorf("expected two missing fields, got %v", err)
	}

	for _, info := range reg.ListServices() {
		if info.Calls != 0 {
			t.Errorf("%s called %d times before validation passed", info.Kind, info.Calls)
		}
	}
}

// --- Quota Scope Tests ---

func TestExecute_ProcessScopeQuota(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	for i := 1; i <= 4; i++ {
		exec, err := o.Execute(context.Background(), testConfig())
		if err != nil {
			t.Fatalf("execution %d: %v", i, err)
		}
		paid := exec.Results.Succeeded(domain.StepPayment)
		if paid != (i <= 3) {
			t.Errorf("execution %d: payment success = %v", i, paid)
		}
	}

	o.ResetCounters()

	exec, _ := o.Execute(context.Background(), testConfig())
	if !exec.Results.Succeeded(domain.StepPayment) {
		t.Error("payment should succeed after reset")
	}
}

func TestExecute_RequestScopeQuota(t *testing.T) {
	o := New(Config{
		Scope: ScopeRequest,
		NewRegistry: func() *steps.Registry {
			return steps.NewRegistry(steps.Options{Rand: steps.FixedRand(0.99)})
		},
	})

	for i := 1; i <= 5; i++ {
		exec, err := o.Execute(context.Background(), testConfig())
		if err != nil {
			t.Fatalf("execution %d: %v", i, err)
		}
		if !exec.Results.Succeeded(domain.StepPayment) {
			t.Errorf("execution %d: payment should succeed with per-request quota", i)
		}
	}
}

func TestExecute_ConcurrentSharedQuota(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99), PaymentQuota: 3})

	const sagas, retries = 10, 5
	var (
		mu       sync.Mutex
		payments []domain.Outcome
	)
	record := func(outcome domain.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		payments = append(payments, outcome)
	}

	var g errgroup.Group
	for i := 0; i < sagas; i++ {
		g.Go(func() error {
			exec, err := o.Execute(context.Background(), testConfig())
			if err != nil {
				return err
			}
			if outcome, ok := exec.Results.Get(domain.StepPayment); ok {
				record(outcome)
			}
			return nil
		})
	}
	for i := 0; i < retries; i++ {
		g.Go(func() error {
			res, err := o.RetryStep(context.Background(), RetryRequest{Step: domain.StepPayment, Config: testConfig()})
			if err != nil {
				return err
			}
			record(res.Outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payments) != sagas+retries {
		t.Fatalf("payment outcomes = %d, want %d", len(payments), sagas+retries)
	}

	var counts []int
	for _, p := range payments {
		if p.Success() {
			n, _ := p.FloatValue("successful_payment_count")
			counts = append(counts, int(n))
		}
	}
	sort.Ints(counts)
	if diff := cmp.Diff([]int{1, 2, 3}, counts); diff != "" {
		t.Errorf("successful payments mismatch (-want +got):\n%s", diff)
	}
	if o.ActiveCount() != 0 {
		t.Errorf("active sagas = %d, want 0", o.ActiveCount())
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope(""); err != nil || s != ScopeProcess {
		t.Errorf("empty scope = %q, %v", s, err)
	}
	if s, err := ParseScope("Request"); err != nil || s != ScopeRequest {
		t.Errorf("request scope = %q, %v", s, err)
	}
	if _, err := ParseScope("global"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

// --- Concurrency / Cancellation Tests ---

func TestExecute_NotificationsRunConcurrently(t *testing.T) {
	_, reg := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	var started sync.WaitGroup
	started.Add(2)
	bothStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(bothStarted)
	}()

	waitForPeer := func(kind domain.StepKind) *funcProvider {
		return &funcProvider{kind: kind, fn: func(ctx context.Context, p steps.Params) domain.Outcome {
			started.Done()
			select {
			case <-bothStarted:
				return domain.Succeeded(kind, nil)
			case <-time.After(2 * time.Second):
				return domain.Failed(kind, "peer notification never started")
			}
		}}
	}
	reg.Register(waitForPeer(domain.StepEmail))
	reg.Register(waitForPeer(domain.StepSMS))

	o := New(Config{Registry: reg})
	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, step := range []domain.StepKind{domain.StepEmail, domain.StepSMS} {
		if out, _ := exec.Results.Get(step); !out.Success() {
			t.Errorf("%s: %s", step, out.ErrorReason())
		}
	}

	got := keys(exec.Results)
	if got[len(got)-1] != domain.StepSummary {
		t.Error("summary must run after both notifications")
	}
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec, err := o.Execute(ctx, testConfig())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if exec == nil || exec.State != domain.SagaStateCancelled {
		t.Fatalf("expected cancelled execution, got %+v", exec)
	}
	if exec.Results.Len() != 0 {
		t.Errorf("no steps should run, got %v", keys(exec.Results))
	}
	if exec.Report != nil {
		t.Error("cancelled execution should not carry a report")
	}
}

func TestExecute_CancelledMidway(t *testing.T) {
	_, reg := newTestOrchestrator(steps.Options{Rand: steps.FixedRand(0.99)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg.Register(&funcProvider{kind: domain.StepOrder, fn: func(context.Context, steps.Params) domain.Outcome {
		cancel()
		return domain.Succeeded(domain.StepOrder, map[string]any{"order_id": "ord-1"})
	}})

	o := New(Config{Registry: reg})
	exec, err := o.Execute(ctx, testConfig())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	want := []domain.StepKind{domain.StepAnalysis, domain.StepOrder}
	if diff := cmp.Diff(want, keys(exec.Results)); diff != "" {
		t.Errorf("partial results mismatch (-want +got):\n%s", diff)
	}

	// Следующий прогон не видит состояния отменённого.
	next, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.ID == exec.ID || next.State != domain.SagaStateDone {
		t.Errorf("next execution should be independent, got state %s", next.State)
	}
	if o.ActiveCount() != 0 {
		t.Errorf("active sagas = %d, want 0", o.ActiveCount())
	}
}

func TestExecute_ProviderPanic(t *testing.T) {
	store := &memoryStore{}
	reg := steps.NewRegistry(steps.Options{Rand: steps.FixedRand(0.99)})
	reg.Register(&funcProvider{kind: domain.StepSMS, fn: func(context.Context, steps.Params) domain.Outcome {
		panic("boom")
	}})

	o := New(Config{Registry: reg, Store: store})
	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("panic must not abort the saga, got %v", err)
	}
	if exec.State != domain.SagaStateDone {
		t.Errorf("state = %s, want DONE", exec.State)
	}

	// Уже выполненные шаги сохраняются.
	for _, step := range []domain.StepKind{
		domain.StepAnalysis, domain.StepOrder, domain.StepPayment,
		domain.StepShipping, domain.StepEmail, domain.StepSummary,
	} {
		if !exec.Results.Succeeded(step) {
			t.Errorf("%s should have succeeded", step)
		}
	}

	sms, ok := exec.Results.Get(domain.StepSMS)
	if !ok {
		t.Fatal("sms outcome missing")
	}
	if sms.Success() {
		t.Error("sms should be recorded as failed")
	}
	if !strings.Contains(sms.ErrorReason(), ErrProviderFault.Error()) {
		t.Errorf("reason = %q, want provider fault", sms.ErrorReason())
	}

	if exec.Report == nil {
		t.Fatal("report missing")
	}
	if diff := cmp.Diff([]domain.StepKind{domain.StepSMS}, exec.Report.FailedSteps); diff != "" {
		t.Errorf("failed steps mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Get(context.Background(), exec.ID); err != nil {
		t.Errorf("execution with a panicked step should be saved: %v", err)
	}
}

func TestRetryStep_ProviderPanic(t *testing.T) {
	reg := steps.NewRegistry(steps.Options{Rand: steps.FixedRand(0.99)})
	reg.Register(&funcProvider{kind: domain.StepPayment, fn: func(context.Context, steps.Params) domain.Outcome {
		panic("card reader on fire")
	}})

	o := New(Config{Registry: reg})
	res, err := o.RetryStep(context.Background(), RetryRequest{Step: domain.StepPayment, Config: testConfig()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome.Success() || !strings.Contains(res.Outcome.ErrorReason(), "card reader on fire") {
		t.Errorf("unexpected outcome: success=%v reason=%q", res.Outcome.Success(), res.Outcome.ErrorReason())
	}
	if res.Outcome.Attempt() != 1 {
		t.Errorf("attempt = %d, want 1", res.Outcome.Attempt())
	}
	if !res.Escalation.Success() {
		t.Error("escalation should still be sent after a panicked retry")
	}
}

// --- Events / Store Tests ---

func TestExecute_EventsAndStore(t *testing.T) {
	sink := &recordingSink{}
	store := &memoryStore{}
	o := New(Config{
		Registry: steps.NewRegistry(steps.Options{Rand: steps.FixedRand(0.99)}),
		Events:   sink,
		Store:    store,
	})

	exec, err := o.Execute(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{EventSagaCompleted}, sink.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if sink.keys[0] != exec.ID.String() {
		t.Errorf("event key = %s, want saga id", sink.keys[0])
	}

	stored, err := o.Find(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.ID != exec.ID {
		t.Error("stored execution id mismatch")
	}
}

func TestExecute_SinkFailureIgnored(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	o := New(Config{
		Registry: steps.NewRegistry(steps.Options{Rand: steps.FixedRand(0.99)}),
		Events:   sink,
	})

	if _, err := o.Execute(context.Background(), testConfig()); err != nil {
		t.Errorf("sink failure must not surface, got %v", err)
	}
}

func TestFind_NoStore(t *testing.T) {
	o, _ := newTestOrchestrator(steps.Options{})
	if _, err := o.Find(context.Background(), uuid.New()); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("expected ErrHistoryDisabled, got %v", err)
	}
}

// --- SagaRun Tests ---

func TestSagaRun_Transitions(t *testing.T) {
	run := NewSagaRun(testConfig())

	if err := run.Advance(domain.SagaStatePaymentAttempted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if err := run.Advance(domain.SagaStateAnalyzed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := run.Advance(domain.SagaStateCancelled); err != nil {
		t.Fatalf("cancel from non-terminal state: %v", err)
	}
	if err := run.Advance(domain.SagaStateCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel from terminal state should fail, got %v", err)
	}
}

func TestSagaRun_RecordDuplicate(t *testing.T) {
	run := NewSagaRun(testConfig())
	o := domain.Succeeded(domain.StepAnalysis, nil)

	if err := run.Record(domain.StepAnalysis, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := run.Record(domain.StepAnalysis, o); !errors.Is(err, domain.ErrDuplicateStep) {
		t.Errorf("expected ErrDuplicateStep, got %v", err)
	}

	if n := run.Results().Len(); n != 1 {
		t.Errorf("recorded results = %d, want 1", n)
	}
}
