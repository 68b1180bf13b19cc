package steps

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/summary"
)

// summaryProvider — итоговый отчёт. Политика отказов фиксирована.
type summaryProvider struct {
	base
}

func newSummaryProvider(rnd Rand, logger *slog.Logger) *summaryProvider {
	p := &summaryProvider{}
	p.init(domain.StepSummary, "Order summary report", rareFailure{}, rnd, logger)
	return p
}

func (p *summaryProvider) Execute(ctx context.Context, params Params) domain.Outcome {
	in, ok := params.(SummaryParams)
	if !ok {
		return p.mismatch(params)
	}

	if p.simulateFailure(ctx) {
		return domain.Failed(p.kind, "Summary generation temporarily unavailable")
	}

	report := summary.Summarize(in.Config, in.Results)

	p.log(ctx, slog.LevelInfo, "summary generated",
		"completed", report.SuccessfulSteps,
		"total", report.AttemptedSteps,
	)

	return domain.Succeeded(p.kind, map[string]any{
		"summary_id":         uuid.New().String(),
		"summary_text":       summary.Render(in.Config, report),
		"workflow_type":      report.WorkflowType,
		"domain":             report.Domain,
		"total_amount":       report.TotalAmount,
		"currency":           report.Currency,
		"services_completed": report.SuccessfulSteps,
		"services_total":     report.AttemptedSteps,
		"completion_rate":    math.Round(report.CompletionRate*10) / 10,
		"customer_id":        report.CustomerID,
	})
}
