package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/rates"
)

// RateLookup — live-источник курса валют.
// *rates.Client реализует этот интерфейс.
type RateLookup interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// currencyProvider — конвертация валюты: live-курс с fallback на таблицу.
//
// Ошибка, таймаут, отсутствие курса в ответе или принудительный отказ
// политики приводят к fallback. Шаг падает, только если пары нет и в таблице.
type currencyProvider struct {
	base
	lookup  RateLookup
	table   rates.Table
	timeout time.Duration
}

func newCurrencyProvider(lookup RateLookup, table rates.Table, timeout time.Duration, injected float64, rnd Rand, logger *slog.Logger) *currencyProvider {
	if table == nil {
		table = rates.DefaultTable
	}
	if timeout <= 0 {
		timeout = rates.DefaultTimeout
	}
	p := &currencyProvider{lookup: lookup, table: table, timeout: timeout}
	p.init(domain.StepCurrency, "Currency conversion with live rates and fallback table",
		externalPolicy{injected: Probability(injected)}, rnd, logger)
	return p
}

func (p *currencyProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(CurrencyParams)
	if !ok {
		return p.mismatch(params)
	}

	from := strings.ToUpper(strings.TrimSpace(in.From))
	to := strings.ToUpper(strings.TrimSpace(in.To))

	if from == to {
		p.calls.Add(1)
		return domain.Succeeded(p.kind, conversionPayload(in.Amount, in.Amount, from, to, 1.0)).
			WithSource(domain.SourceNoConversion)
	}

	if rate, ok := p.liveRate(ctx, from, to); ok {
		converted := rates.Round2(in.Amount * rate)
		p.log(ctx, slog.LevelInfo, "converted with live rate", "from", from, "to", to, "rate", rate)
		return domain.Succeeded(p.kind, conversionPayload(in.Amount, converted, from, to, rate)).
			WithSource(domain.SourceLive)
	}

	rate, ok := p.table.Rate(from, to)
	if !ok {
		// Курс 1.0 не подставляется: неизвестная пара считается отказом
		// конвертации, а не нулевым изменением суммы.
		p.log(ctx, slog.LevelError, "no fallback rate", "from", from, "to", to)
		return domain.Failed(p.kind, fmt.Sprintf("Currency conversion failed: no rate for %s to %s", from, to)).
			WithSource(domain.SourceFallback).
			WithPayload(map[string]any{
				"original_amount": in.Amount,
				"from_currency":   from,
				"to_currency":     to,
			})
	}

	converted := rates.Round2(in.Amount * rate)
	p.log(ctx, slog.LevelInfo, "converted with fallback rate", "from", from, "to", to, "rate", rate)
	return domain.Succeeded(p.kind, conversionPayload(in.Amount, converted, from, to, rate)).
		WithSource(domain.SourceFallback)
}

// liveRate запрашивает курс с ограниченным таймаутом.
// Возвращает false, если нужно переходить на fallback.
func (p *currencyProvider) liveRate(ctx context.Context, from, to string) (float64, bool) {
	if p.simulateFailure(ctx) {
		p.log(ctx, slog.LevelWarn, "live rate skipped, using fallback", "reason", "injected failure")
		return 0, false
	}
	if p.lookup == nil {
		p.log(ctx, slog.LevelDebug, "live rate skipped, using fallback", "reason", "no lookup configured")
		return 0, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rate, err := p.lookup.Rate(lookupCtx, from, to)
	if err != nil {
		p.log(ctx, slog.LevelWarn, "live rate failed, using fallback", "error", err)
		return 0, false
	}
	return rate, true
}

func conversionPayload(original, converted float64, from, to string, rate float64) map[string]any {
	return map[string]any{
		"original_amount":  original,
		"converted_amount": converted,
		"from_currency":    from,
		"to_currency":      to,
		"exchange_rate":    rate,
	}
}
