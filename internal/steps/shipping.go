package steps

import (
	"context"
	"log/slog"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

const digits = "0123456789"

// shippingProvider — подтверждение отгрузки.
type shippingProvider struct {
	base
	tracking func() string
}

func newShippingProvider(rate float64, rnd Rand, logger *slog.Logger) *shippingProvider {
	p := &shippingProvider{tracking: mustDigits(6)}
	p.init(domain.StepShipping, "Shipping confirmation and tracking", Probability(rate), rnd, logger)
	return p
}

func (p *shippingProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(ShippingParams)
	if !ok {
		return p.mismatch(params)
	}
	if in.OrderID == "" {
		p.calls.Add(1)
		return domain.Failed(p.kind, "Shipping confirmation failed - order id required")
	}

	method := in.Method
	if method == "" {
		method = "standard"
	}

	p.log(ctx, slog.LevelInfo, "confirming shipping", "order_id", in.OrderID, "method", method)

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "Shipping confirmation failed - warehouse system unavailable")
	}

	return domain.Succeeded(p.kind, map[string]any{
		"order_id":           in.OrderID,
		"tracking_number":    "TRK" + p.tracking(),
		"shipping_method":    method,
		"status":             "shipped",
		"estimated_delivery": "3-5 business days",
		"shipped_at":         time.Now().UTC().Format(time.RFC3339),
	})
}

// mustDigits возвращает генератор цифровых идентификаторов длины n.
// Алфавит и длина фиксированы, поэтому ошибка означает ошибку программиста.
func mustDigits(n int) func() string {
	gen, err := nanoid.CustomASCII(digits, n)
	if err != nil {
		panic(err)
	}
	return gen
}
