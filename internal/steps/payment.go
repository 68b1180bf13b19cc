package steps

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/rates"
)

// transactionFeeRate — комиссия за транзакцию.
const transactionFeeRate = 0.029

// paymentProvider — оплата с квотой успешных вызовов.
//
// Квота моделирует исчерпание лимита, а не шум: после N успешных оплат
// каждый следующий вызов детерминированно падает до ResetCounters.
type paymentProvider struct {
	base
	quota *QuotaState
}

func newPaymentProvider(quota *QuotaState, logger *slog.Logger) *paymentProvider {
	p := &paymentProvider{quota: quota}
	p.init(domain.StepPayment, "Payment processing with success quota", quotaPolicy{state: quota}, FixedRand(1), logger)
	return p
}

func (p *paymentProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(PaymentParams)
	if !ok {
		return p.mismatch(params)
	}

	p.log(ctx, slog.LevelInfo, "processing payment",
		"amount", in.Amount,
		"currency", in.Currency,
		"customer_id", in.CustomerID,
	)

	// Решение и номер оплаты берутся из одного Take: параллельные
	// оплаты получают разные номера.
	call := p.calls.Add(1)
	used, ok := p.quota.Take()
	p.logDecision(ctx, call, !ok)
	if !ok {
		return domain.Failed(p.kind, fmt.Sprintf(
			"Payment processing failed - card declined after %d successful transactions", used))
	}

	method := in.PaymentMethod
	if method == "" {
		method = "credit_card"
	}

	return domain.Succeeded(p.kind, map[string]any{
		"payment_id":               uuid.New().String(),
		"amount":                   in.Amount,
		"currency":                 in.Currency,
		"customer_id":              in.CustomerID,
		"payment_method":           method,
		"status":                   "completed",
		"transaction_fee":          rates.Round2(in.Amount * transactionFeeRate),
		"successful_payment_count": used,
	})
}
