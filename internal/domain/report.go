package domain

// Report — итоговый отчёт о выполнении саги.
type Report struct {
	CustomerID   string `json:"customer_id"`
	WorkflowType string `json:"workflow_type"`
	Domain       string `json:"domain"`

	// TotalAmount — сумма в исходной валюте.
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`

	// Conversion заполняется, только если конвертация была выполнена.
	Conversion *ConversionInfo `json:"conversion,omitempty"`

	Items []ReportItem `json:"items"`

	AttemptedSteps  int     `json:"attempted_steps"`
	SuccessfulSteps int     `json:"successful_steps"`
	CompletionRate  float64 `json:"completion_rate"`

	// FailedSteps — упавшие шаги в порядке выполнения.
	// Пропущенные шаги сюда не попадают: это не ошибки.
	FailedSteps []StepKind `json:"failed_steps,omitempty"`

	// OmittedSteps — шаги, пропущенные из-за упавшей зависимости.
	OmittedSteps []StepKind `json:"omitted_steps,omitempty"`
}

// ConversionInfo — сведения о конвертации валюты.
type ConversionInfo struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ExchangeRate float64 `json:"exchange_rate"`
	Source       Source  `json:"source"`
}

// ReportItem — строка детализации.
type ReportItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Complete возвращает true, если все выполненные шаги успешны.
func (r *Report) Complete() bool {
	return r.SuccessfulSteps == r.AttemptedSteps
}
