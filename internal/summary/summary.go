// Package summary сводит конфигурацию и ResultsMap в итоговый отчёт.
//
// Summarize — чистая функция без побочных эффектов. Она терпима к
// пропущенным шагам: пропуск из-за упавшей зависимости не считается
// ошибкой и не попадает в список упавших шагов.
package summary

import (
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// gatedSteps — шаги, которые выполняются только при успехе зависимостей.
// Отсутствие такого шага в ResultsMap означает пропуск.
var gatedSteps = []domain.StepKind{
	domain.StepCurrency,
	domain.StepPayment,
	domain.StepShipping,
	domain.StepEmail,
	domain.StepSMS,
}

// Summarize строит отчёт по конфигурации и результатам шагов.
func Summarize(cfg domain.WorkflowConfig, results domain.ResultsMap) domain.Report {
	report := domain.Report{
		CustomerID:   cfg.CustomerID,
		WorkflowType: cfg.TypeOrDefault(),
		Domain:       cfg.DomainOrDefault(),
		TotalAmount:  totalAmount(cfg, results),
		Currency:     cfg.Currency,
		Items:        make([]domain.ReportItem, 0, len(cfg.Items)),
	}

	for _, item := range cfg.Items {
		report.Items = append(report.Items, domain.ReportItem{
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		})
	}

	if conv, ok := results.Get(domain.StepCurrency); ok && conv.Success() {
		amount, _ := conv.FloatValue("converted_amount")
		rate, _ := conv.FloatValue("exchange_rate")
		report.Conversion = &domain.ConversionInfo{
			Amount:       amount,
			Currency:     conv.StringValue("to_currency"),
			ExchangeRate: rate,
			Source:       conv.Source(),
		}
	}

	results.Each(func(step domain.StepKind, o domain.Outcome) {
		report.AttemptedSteps++
		if o.Success() {
			report.SuccessfulSteps++
		} else {
			report.FailedSteps = append(report.FailedSteps, step)
		}
	})

	report.CompletionRate = CompletionRate(report.SuccessfulSteps, report.AttemptedSteps)
	if report.CompletionRate >= 100 {
		report.FailedSteps = nil
	}

	for _, step := range gatedSteps {
		if step == domain.StepCurrency && !cfg.NeedsConversion() {
			continue
		}
		if !results.Has(step) {
			report.OmittedSteps = append(report.OmittedSteps, step)
		}
	}

	return report
}

// CompletionRate возвращает successful / attempted * 100.
// Если ни один шаг не выполнялся, результат 100.
func CompletionRate(successful, attempted int) float64 {
	if attempted == 0 {
		return 100
	}
	return float64(successful) / float64(attempted) * 100
}

// totalAmount берёт сумму, посчитанную шагом анализа, чтобы не пересчитывать её.
func totalAmount(cfg domain.WorkflowConfig, results domain.ResultsMap) float64 {
	if analysis, ok := results.Get(domain.StepAnalysis); ok {
		if total, ok := analysis.FloatValue("estimated_total"); ok {
			return total
		}
	}
	return cfg.Total()
}
