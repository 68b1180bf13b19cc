package steps

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// analysisProvider — разбор запроса. Никогда не падает.
type analysisProvider struct {
	base
}

func newAnalysisProvider(logger *slog.Logger) *analysisProvider {
	p := &analysisProvider{}
	p.init(domain.StepAnalysis, "Request analysis and validation", neverFails{}, FixedRand(1), logger)
	return p
}

func (p *analysisProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(AnalysisParams)
	if !ok {
		return p.mismatch(params)
	}
	p.calls.Add(1)

	cfg := in.Config
	return domain.Succeeded(p.kind, map[string]any{
		"status":          "analyzed",
		"workflow_type":   cfg.TypeOrDefault(),
		"domain":          cfg.DomainOrDefault(),
		"total_items":     len(cfg.Items),
		"estimated_total": cfg.Total(),
		"currency":        cfg.Currency,
		"message":         "Request successfully analyzed and validated",
	})
}

// orderProvider — создание заказа.
type orderProvider struct {
	base
}

func newOrderProvider(rate float64, rnd Rand, logger *slog.Logger) *orderProvider {
	p := &orderProvider{}
	p.init(domain.StepOrder, "Order creation", Probability(rate), rnd, logger)
	return p
}

func (p *orderProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(OrderParams)
	if !ok {
		return p.mismatch(params)
	}

	p.log(ctx, slog.LevelInfo, "creating order", "customer_id", in.CustomerID, "channel", in.Channel)

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "Order creation failed - system temporarily unavailable")
	}

	orderID := uuid.New().String()
	items := make([]domain.Item, len(in.Items))
	copy(items, in.Items)

	p.log(ctx, slog.LevelInfo, "order created", "order_id", orderID)

	return domain.Succeeded(p.kind, map[string]any{
		"order_id":     orderID,
		"customer_id":  in.CustomerID,
		"channel":      in.Channel,
		"items":        items,
		"total_amount": in.Amount,
		"status":       "created",
		"created_at":   time.Now().UTC().Format(time.RFC3339),
	})
}
