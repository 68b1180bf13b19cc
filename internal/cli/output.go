package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// JSONMode сообщает, включён ли вывод в JSON.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Line выводит строку текста в stdout (только в табличном режиме).
func (o *Output) Line(format string, args ...any) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// --- Formatting helpers ---

// stepRows превращает результаты шагов в строки таблицы.
func stepRows(results StepResults) [][]string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.Step, statusLabel(r.Success), stepDetail(r)}
	}
	return rows
}

func statusLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

// stepDetail — короткое описание результата: ошибка или главный идентификатор.
func stepDetail(r StepResultResponse) string {
	if !r.Success {
		return r.ErrorMessage
	}
	for _, key := range []string{"order_id", "payment_id", "tracking_number", "email_id", "sms_id", "ticket_id", "summary_id"} {
		if v, ok := r.Data[key].(string); ok && v != "" {
			return key + "=" + v
		}
	}
	if v, ok := r.Data["converted_amount"].(float64); ok {
		return fmt.Sprintf("converted_amount=%s (%s)", humanize.CommafWithDigits(v, 2), r.Source)
	}
	return ""
}

// ago форматирует время относительно текущего момента.
func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// rate форматирует процент выполнения.
func rate(r *ReportResponse) string {
	if r == nil {
		return "-"
	}
	return humanize.FormatFloat("#.#", r.CompletionRate) + "%"
}
