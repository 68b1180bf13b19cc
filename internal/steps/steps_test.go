package steps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/rates"
)

// stubLookup — управляемый live-источник курсов.
type stubLookup struct {
	rate  float64
	err   error
	block bool
	calls atomic.Int32
}

func (s *stubLookup) Rate(ctx context.Context, from, to string) (float64, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return s.rate, s.err
}

func newTestRegistry(rnd Rand, lookup RateLookup) *Registry {
	return NewRegistry(Options{Rand: rnd, RateLookup: lookup})
}

func mustGet(t *testing.T, r *Registry, kind domain.StepKind) Provider {
	t.Helper()
	p, err := r.GetService(kind)
	if err != nil {
		t.Fatalf("GetService(%s): %v", kind, err)
	}
	return p
}

// --- Registry Tests ---

func TestNewRegistry(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)

	kinds := r.Kinds()
	if len(kinds) != len(domain.AllSteps()) {
		t.Fatalf("expected %d providers, got %d", len(domain.AllSteps()), len(kinds))
	}
	for i, k := range domain.AllSteps() {
		if kinds[i] != k {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], k)
		}
	}

	if _, err := r.GetService("unknown"); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestRegistry_ListServices(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)

	infos := r.ListServices()
	if len(infos) != len(domain.AllSteps()) {
		t.Fatalf("expected %d infos, got %d", len(domain.AllSteps()), len(infos))
	}

	for _, info := range infos {
		if info.Description == "" || info.Policy == "" {
			t.Errorf("%s: empty description or policy", info.Kind)
		}
		if info.Stateful != (info.Kind == domain.StepPayment) {
			t.Errorf("%s: stateful = %v", info.Kind, info.Stateful)
		}
	}
}

func TestRegistry_FailureRateOverride(t *testing.T) {
	r := NewRegistry(Options{
		Rand: FixedRand(0.5),
		FailureRates: map[domain.StepKind]float64{
			domain.StepOrder:    0.9,
			domain.StepAnalysis: 1.0,
			domain.StepSummary:  1.0,
		},
	})

	if mustGet(t, r, domain.StepOrder).Execute(context.Background(), OrderParams{CustomerID: "C1"}).Success() {
		t.Error("order should fail with overridden rate 0.9")
	}
	if !mustGet(t, r, domain.StepAnalysis).Execute(context.Background(), AnalysisParams{}).Success() {
		t.Error("analysis policy must not be overridable")
	}
	if !mustGet(t, r, domain.StepSummary).Execute(context.Background(), SummaryParams{}).Success() {
		t.Error("summary policy must not be overridable")
	}
}

// --- Analysis Tests ---

func TestAnalysis_NeverFails(t *testing.T) {
	r := newTestRegistry(FixedRand(0), nil)
	p := mustGet(t, r, domain.StepAnalysis)

	cfg := domain.WorkflowConfig{
		CustomerID: "C1",
		Currency:   "USD",
		Items: []domain.Item{
			{Name: "Widget", Price: 19.99, Quantity: 3},
			{Name: "Gadget", Price: 0.1, Quantity: 7},
		},
	}

	for i := 0; i < 50; i++ {
		o := p.Execute(context.Background(), AnalysisParams{Config: cfg})
		if !o.Success() {
			t.Fatalf("analysis failed on call %d", i+1)
		}
		total, ok := o.FloatValue("estimated_total")
		if !ok {
			t.Fatal("estimated_total missing")
		}
		if want := 19.99*3 + 0.1*7; total != want {
			t.Errorf("estimated_total = %v, want unrounded %v", total, want)
		}
	}
}

// --- Payment Quota Tests ---

func TestPayment_Quota(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)
	p := mustGet(t, r, domain.StepPayment)
	params := PaymentParams{Amount: 100, Currency: "USD", CustomerID: "C1"}

	for call := 1; call <= 3; call++ {
		o := p.Execute(context.Background(), params)
		if !o.Success() {
			t.Fatalf("call %d should succeed: %s", call, o.ErrorReason())
		}
		if n, _ := o.FloatValue("successful_payment_count"); int(n) != call {
			t.Errorf("call %d: successful_payment_count = %v", call, n)
		}
	}

	for call := 4; call <= 6; call++ {
		o := p.Execute(context.Background(), params)
		if o.Success() {
			t.Fatalf("call %d should fail deterministically", call)
		}
		if !strings.Contains(o.ErrorReason(), "after 3 successful") {
			t.Errorf("unexpected reason: %s", o.ErrorReason())
		}
	}

	r.ResetCounters()

	if o := p.Execute(context.Background(), params); !o.Success() {
		t.Errorf("payment should succeed after reset: %s", o.ErrorReason())
	}
}

func TestPayment_Payload(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)
	o := mustGet(t, r, domain.StepPayment).Execute(context.Background(), PaymentParams{Amount: 100, Currency: "USD"})

	if fee, _ := o.FloatValue("transaction_fee"); fee != 2.9 {
		t.Errorf("transaction_fee = %v, want 2.9", fee)
	}
	if amount, _ := o.FloatValue("amount"); amount != 100 {
		t.Errorf("amount = %v, want 100", amount)
	}
	if o.StringValue("payment_method") != "credit_card" {
		t.Errorf("default payment_method = %q", o.StringValue("payment_method"))
	}
}

func TestPayment_ConcurrentCountsDistinct(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)
	p := mustGet(t, r, domain.StepPayment)
	params := PaymentParams{Amount: 10, Currency: "USD", CustomerID: "C1"}

	const callers = 12
	var (
		mu     sync.Mutex
		counts []int
		failed int
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := p.Execute(context.Background(), params)

			mu.Lock()
			defer mu.Unlock()
			if !o.Success() {
				failed++
				return
			}
			n, _ := o.FloatValue("successful_payment_count")
			counts = append(counts, int(n))
		}()
	}
	wg.Wait()

	sort.Ints(counts)
	if diff := cmp.Diff([]int{1, 2, 3}, counts); diff != "" {
		t.Errorf("successful_payment_count values mismatch (-want +got):\n%s", diff)
	}
	if failed != callers-3 {
		t.Errorf("failed = %d, want %d", failed, callers-3)
	}
	if calls := p.(interface{ Calls() int64 }).Calls(); calls != callers {
		t.Errorf("calls = %d, want %d", calls, callers)
	}
}

func TestQuotaState(t *testing.T) {
	q := NewQuotaState(2)
	for want := 1; want <= 2; want++ {
		if used, ok := q.Take(); !ok || used != want {
			t.Fatalf("take %d = %d, %v", want, used, ok)
		}
	}
	if used, ok := q.Take(); ok || used != 2 {
		t.Errorf("third take = %d, %v, want 2, false", used, ok)
	}
	if used, limit := q.Snapshot(); used != 2 || limit != 2 {
		t.Errorf("snapshot = %d/%d", used, limit)
	}
	if old := q.Reset(); old != 2 {
		t.Errorf("reset returned %d", old)
	}
	if used, ok := q.Take(); !ok || used != 1 {
		t.Errorf("take after reset = %d, %v", used, ok)
	}
}

// --- Currency Tests ---

func TestCurrency_SameCurrency(t *testing.T) {
	lookup := &stubLookup{rate: 2}
	r := newTestRegistry(FixedRand(0), lookup)

	o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 123.456, From: "USD", To: "usd"})
	if !o.Success() {
		t.Fatalf("unexpected failure: %s", o.ErrorReason())
	}
	if rate, _ := o.FloatValue("exchange_rate"); rate != 1.0 {
		t.Errorf("rate = %v, want 1.0", rate)
	}
	if converted, _ := o.FloatValue("converted_amount"); converted != 123.456 {
		t.Errorf("converted = %v, want exactly 123.456", converted)
	}
	if o.Source() != domain.SourceNoConversion {
		t.Errorf("source = %q", o.Source())
	}
	if lookup.calls.Load() != 0 {
		t.Error("lookup must not be called for same currency")
	}
}

func TestCurrency_Live(t *testing.T) {
	lookup := &stubLookup{rate: 0.9}
	r := newTestRegistry(FixedRand(0.99), lookup)

	o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 100, From: "USD", To: "EUR"})
	if !o.Success() || o.Source() != domain.SourceLive {
		t.Fatalf("expected live success, got success=%v source=%q", o.Success(), o.Source())
	}
	if converted, _ := o.FloatValue("converted_amount"); converted != 90 {
		t.Errorf("converted = %v, want 90", converted)
	}
}

func TestCurrency_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		rnd    Rand
		lookup *stubLookup
		called bool
	}{
		{"lookup error", FixedRand(0.99), &stubLookup{err: errors.New("connection refused")}, true},
		{"rate not found", FixedRand(0.99), &stubLookup{err: rates.ErrRateNotFound}, true},
		{"injected failure", FixedRand(0), &stubLookup{rate: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(tt.rnd, tt.lookup)
			o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 100, From: "USD", To: "EUR"})

			if !o.Success() {
				t.Fatalf("unexpected failure: %s", o.ErrorReason())
			}
			if o.Source() != domain.SourceFallback {
				t.Errorf("source = %q, want fallback", o.Source())
			}
			if converted, _ := o.FloatValue("converted_amount"); converted != 85.00 {
				t.Errorf("converted = %v, want 85.00", converted)
			}
			if (tt.lookup.calls.Load() > 0) != tt.called {
				t.Errorf("lookup called = %v, want %v", tt.lookup.calls.Load() > 0, tt.called)
			}
		})
	}
}

func TestCurrency_Timeout(t *testing.T) {
	lookup := &stubLookup{block: true}
	r := NewRegistry(Options{Rand: FixedRand(0.99), RateLookup: lookup, LookupTimeout: 20 * time.Millisecond})

	start := time.Now()
	o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 10, From: "GBP", To: "USD"})

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("lookup not bounded by timeout: %v", elapsed)
	}
	if !o.Success() || o.Source() != domain.SourceFallback {
		t.Fatalf("expected fallback success, got success=%v source=%q", o.Success(), o.Source())
	}
	if converted, _ := o.FloatValue("converted_amount"); converted != 13.7 {
		t.Errorf("converted = %v, want 13.7", converted)
	}
}

func TestCurrency_NoFallbackPair(t *testing.T) {
	r := newTestRegistry(FixedRand(0), nil)

	o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 10, From: "JPY", To: "INR"})
	if o.Success() {
		t.Fatal("expected failure for unknown pair")
	}
	if o.Source() != domain.SourceFallback {
		t.Errorf("source = %q", o.Source())
	}
	if _, ok := o.FloatValue("exchange_rate"); ok {
		t.Error("unknown pair must not report an assumed exchange rate")
	}
	if amount, _ := o.FloatValue("original_amount"); amount != 10 {
		t.Errorf("original_amount = %v, want 10", amount)
	}
}

func TestCurrency_WithRatesClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"conversion_rate": 0.8})
	}))
	defer server.Close()

	client := rates.NewClient(rates.ClientConfig{BaseURL: server.URL, APIKey: "k"})
	r := newTestRegistry(FixedRand(0.99), client)

	o := mustGet(t, r, domain.StepCurrency).Execute(context.Background(), CurrencyParams{Amount: 50, From: "USD", To: "EUR"})
	if o.Source() != domain.SourceLive {
		t.Fatalf("source = %q, want live", o.Source())
	}
	if converted, _ := o.FloatValue("converted_amount"); converted != 40 {
		t.Errorf("converted = %v, want 40", converted)
	}
}

// --- Shipping / Notification Tests ---

func TestShipping(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)
	p := mustGet(t, r, domain.StepShipping)

	o := p.Execute(context.Background(), ShippingParams{OrderID: "ord-1"})
	if !o.Success() {
		t.Fatalf("unexpected failure: %s", o.ErrorReason())
	}
	if !regexp.MustCompile(`^TRK[0-9]{6}$`).MatchString(o.StringValue("tracking_number")) {
		t.Errorf("bad tracking number %q", o.StringValue("tracking_number"))
	}
	if o.StringValue("shipping_method") != "standard" {
		t.Errorf("default method = %q", o.StringValue("shipping_method"))
	}

	if o := p.Execute(context.Background(), ShippingParams{}); o.Success() {
		t.Error("shipping without order id should fail")
	}
}

func TestCallCenter_Priority(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)
	p := mustGet(t, r, domain.StepCallCenter)

	o := p.Execute(context.Background(), CallParams{CustomerID: "C1", PhoneNumber: "+1"})
	if o.StringValue("priority") != "high" || o.StringValue("reason") != ReasonPaymentFailure {
		t.Errorf("default call: priority=%q reason=%q", o.StringValue("priority"), o.StringValue("reason"))
	}
	if !regexp.MustCompile(`^CALL[0-9]{5}$`).MatchString(o.StringValue("ticket_id")) {
		t.Errorf("bad ticket id %q", o.StringValue("ticket_id"))
	}

	o = p.Execute(context.Background(), CallParams{CustomerID: "C1", Reason: "retry_escalation"})
	if o.StringValue("priority") != "medium" {
		t.Errorf("priority = %q, want medium", o.StringValue("priority"))
	}
}

func TestNotifications_ProbabilityPolicy(t *testing.T) {
	// email 0.15, sms 0.12: значение 0.13 между порогами.
	r := newTestRegistry(FixedRand(0.13), nil)

	if mustGet(t, r, domain.StepEmail).Execute(context.Background(), EmailParams{Recipient: "a@b.c"}).Success() {
		t.Error("email should fail at 0.13 < 0.15")
	}
	if !mustGet(t, r, domain.StepSMS).Execute(context.Background(), SMSParams{PhoneNumber: "+1"}).Success() {
		t.Error("sms should succeed at 0.13 >= 0.12")
	}
}

// --- Summary Provider Tests ---

func TestSummaryProvider(t *testing.T) {
	cfg := domain.WorkflowConfig{
		CustomerID: "C1",
		Currency:   "USD",
		Channel:    "B2C",
		Items:      []domain.Item{{Name: "Widget", Price: 50, Quantity: 2}},
	}
	results := domain.NewResultsMap()
	results.Add(domain.StepAnalysis, domain.Succeeded(domain.StepAnalysis, map[string]any{"estimated_total": 100.0}))
	results.Add(domain.StepOrder, domain.Failed(domain.StepOrder, "boom"))

	r := newTestRegistry(FixedRand(0.5), nil)
	o := mustGet(t, r, domain.StepSummary).Execute(context.Background(), SummaryParams{Config: cfg, Results: results})
	if !o.Success() {
		t.Fatalf("unexpected failure: %s", o.ErrorReason())
	}
	if rate, _ := o.FloatValue("completion_rate"); rate != 50 {
		t.Errorf("completion_rate = %v, want 50", rate)
	}
	if !strings.Contains(o.StringValue("summary_text"), "Order Creation") {
		t.Error("summary text should list the failed step")
	}

	r = newTestRegistry(FixedRand(0.01), nil)
	if mustGet(t, r, domain.StepSummary).Execute(context.Background(), SummaryParams{Config: cfg, Results: results}).Success() {
		t.Error("summary should fail below fixed rate")
	}
}

// --- Params / Rand Tests ---

func TestParamsMismatch(t *testing.T) {
	r := newTestRegistry(FixedRand(0.99), nil)

	for _, kind := range r.Kinds() {
		var wrong Params = AnalysisParams{}
		if kind == domain.StepAnalysis {
			wrong = SummaryParams{}
		}
		o := mustGet(t, r, kind).Execute(context.Background(), wrong)
		if o.Success() {
			t.Errorf("%s: expected failure for mismatched params", kind)
		}
		if !strings.Contains(o.ErrorReason(), ErrParamsMismatch.Error()) {
			t.Errorf("%s: reason = %q", kind, o.ErrorReason())
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(PaymentParams{}) != domain.StepPayment {
		t.Error("KindOf(PaymentParams) should be payment")
	}
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
}

func TestSequenceRand(t *testing.T) {
	s := NewSequenceRand(0.1, 0.2)
	got := []float64{s.Float64(), s.Float64(), s.Float64()}
	want := []float64{0.1, 0.2, 0.1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %v, want %v", i, got[i], want[i])
		}
	}

	if NewSequenceRand().Float64() != 0.99 {
		t.Error("empty sequence should yield 0.99")
	}
}

func TestNewRand_Seeded(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 5; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed should yield same sequence")
		}
	}
}
