package summary

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leekchan/accounting"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// Render формирует markdown-текст отчёта.
// Заголовок и разделы зависят от типа workflow (travel, e-commerce, прочее).
func Render(cfg domain.WorkflowConfig, report domain.Report) string {
	var b strings.Builder

	money := accounting.DefaultAccounting(report.Currency+" ", 2)
	kind := humanizeKey(report.WorkflowType)

	total := "**" + money.FormatMoney(report.TotalAmount) + "**"
	if report.Conversion != nil {
		target := accounting.DefaultAccounting(report.Conversion.Currency+" ", 2)
		total += " → **" + target.FormatMoney(report.Conversion.Amount) + "**\n"
		total += fmt.Sprintf("*Exchange Rate: 1 %s = %.4f %s*  \n", report.Currency, report.Conversion.ExchangeRate, report.Conversion.Currency)
		total += fmt.Sprintf("*Conversion Source: %s*", report.Conversion.Source)
	}

	status := fmt.Sprintf("%d/%d steps completed", report.SuccessfulSteps, report.AttemptedSteps)

	switch {
	case strings.Contains(report.WorkflowType, "travel") || report.Domain == "travel":
		b.WriteString("# Travel Booking Summary\n\n")
		b.WriteString("## Service Details\n")
		fmt.Fprintf(&b, "- **Service Type**: %s\n", kind)
		fmt.Fprintf(&b, "- **Total Cost**: %s\n", total)
		fmt.Fprintf(&b, "- **Processing Status**: %s\n\n", status)
		b.WriteString("## Items Booked\n")
		writeItems(&b, money, report.Items)
		b.WriteString("\n## Customer Information\n")
		writeCustomer(&b, cfg)

	case strings.Contains(report.WorkflowType, "commerce") || strings.Contains(report.WorkflowType, "order"):
		b.WriteString("# Order Summary\n\n")
		b.WriteString("## Order Details\n")
		fmt.Fprintf(&b, "- **Order Type**: %s\n", kind)
		fmt.Fprintf(&b, "- **Total Amount**: %s\n", total)
		fmt.Fprintf(&b, "- **Processing Status**: %s\n\n", status)
		b.WriteString("## Items Ordered\n")
		writeItems(&b, money, report.Items)
		b.WriteString("\n## Delivery & Payment\n")
		fmt.Fprintf(&b, "- **Delivery Timeline**: %s\n", orDefault(cfg.DeliveryTimeline, "Standard shipping"))
		fmt.Fprintf(&b, "- **Payment Method**: %s\n", orDefault(cfg.PaymentMethod, "Credit Card"))
		fmt.Fprintf(&b, "- **Customer ID**: `%s`\n", cfg.CustomerID)
		fmt.Fprintf(&b, "- **Email**: %s\n", orDefault(cfg.CustomerEmail, "N/A"))

	default:
		b.WriteString("# Service Summary\n\n")
		b.WriteString("## Service Details\n")
		fmt.Fprintf(&b, "- **Service Type**: %s\n", kind)
		fmt.Fprintf(&b, "- **Domain**: %s\n", humanizeKey(report.Domain))
		fmt.Fprintf(&b, "- **Total Cost**: %s\n", total)
		fmt.Fprintf(&b, "- **Processing Status**: %s\n\n", status)
		b.WriteString("## Services Requested\n")
		writeItems(&b, money, report.Items)
		b.WriteString("\n## Customer Information\n")
		writeCustomer(&b, cfg)
	}

	if len(report.FailedSteps) > 0 {
		b.WriteString("\n## Important Notice\n")
		fmt.Fprintf(&b, "**%d step(s) encountered issues:**\n", len(report.FailedSteps))
		for _, step := range report.FailedSteps {
			fmt.Fprintf(&b, "- %s\n", step.Title())
		}
		b.WriteString("\nFailed steps can be retried individually.\n")
	}

	if len(report.OmittedSteps) > 0 {
		b.WriteString("\n## Not Attempted\n")
		for _, step := range report.OmittedSteps {
			fmt.Fprintf(&b, "- %s (upstream step did not complete)\n", step.Title())
		}
	}

	if report.Complete() && report.AttemptedSteps > 0 {
		b.WriteString("\n## Completion Status\n")
		fmt.Fprintf(&b, "> **All steps completed successfully!**  \n> Your %s is fully processed.\n", strings.ToLower(kind))
	}

	return b.String()
}

func writeItems(b *strings.Builder, money *accounting.Accounting, items []domain.ReportItem) {
	for _, item := range items {
		fmt.Fprintf(b, "- **%dx %s** - *%s*\n", item.Quantity, item.Name, money.FormatMoney(item.UnitPrice))
	}
}

func writeCustomer(b *strings.Builder, cfg domain.WorkflowConfig) {
	fmt.Fprintf(b, "- **Customer ID**: `%s`\n", cfg.CustomerID)
	fmt.Fprintf(b, "- **Contact**: %s\n", orDefault(cfg.CustomerEmail, "N/A"))
	fmt.Fprintf(b, "- **Service Level**: %s\n", orDefault(cfg.ServiceLevel, "Standard"))
}

// humanizeKey превращает "service_request" в "Service Request".
// Первая буква слова берётся как руна, а не как байт.
func humanizeKey(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
