package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation — конфигурация саги не прошла проверку обязательных полей.
var ErrValidation = errors.New("invalid workflow config")

// ValidationError — отсутствуют обязательные поля конфигурации.
// Фатальна: сага прерывается до первого вызова провайдера.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrValidation, strings.Join(e.Missing, ", "))
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Item — позиция заказа.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Subtotal возвращает price * quantity без округления.
func (i Item) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// WorkflowConfig — структурированная конфигурация запроса.
//
// Строится один раз внешним интерпретатором (дефолты уже применены)
// и не изменяется во время оркестрации.
type WorkflowConfig struct {
	CustomerID     string   `json:"customer_id"`
	CustomerEmail  string   `json:"customer_email,omitempty"`
	CustomerPhone  string   `json:"customer_phone,omitempty"`
	Items          []Item   `json:"items"`
	Currency       string   `json:"currency"`
	TargetCurrency string   `json:"target_currency,omitempty"`
	Channel        string   `json:"channel"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	WorkflowSteps  []string `json:"workflow_steps,omitempty"`

	// Описательные поля, используются только в отчёте.
	WorkflowType     string `json:"workflow_type,omitempty"`
	Domain           string `json:"domain,omitempty"`
	ServiceLevel     string `json:"service_level,omitempty"`
	DeliveryTimeline string `json:"delivery_timeline,omitempty"`
	ShippingMethod   string `json:"shipping_method,omitempty"`

	// OrderID — ссылка на ранее созданный заказ (для повторов отгрузки).
	OrderID string `json:"order_id,omitempty"`
}

// DefaultStepLabels — метки шагов, если интерпретатор их не задал.
var DefaultStepLabels = []string{
	"Request Analysis",
	"Service Setup",
	"Payment Processing",
	"Service Arrangement",
	"Confirmation Delivery",
}

// Validate проверяет наличие обязательных полей.
func (c *WorkflowConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.CustomerID) == "" {
		missing = append(missing, "customer_id")
	}
	if len(c.Items) == 0 {
		missing = append(missing, "items")
	}
	if strings.TrimSpace(c.Currency) == "" {
		missing = append(missing, "currency")
	}
	if strings.TrimSpace(c.Channel) == "" {
		missing = append(missing, "channel")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Total возвращает точную (неокруглённую) сумму price * quantity.
// Округление выполняется только на границе конвертации валют.
func (c *WorkflowConfig) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// NeedsConversion возвращает true, если задана отличная целевая валюта.
func (c *WorkflowConfig) NeedsConversion() bool {
	return c.TargetCurrency != "" && !strings.EqualFold(c.TargetCurrency, c.Currency)
}

// StepLabels возвращает метки шагов для отображения.
func (c *WorkflowConfig) StepLabels() []string {
	if len(c.WorkflowSteps) > 0 {
		return c.WorkflowSteps
	}
	return DefaultStepLabels
}

// TypeOrDefault возвращает тип workflow.
func (c *WorkflowConfig) TypeOrDefault() string {
	if c.WorkflowType == "" {
		return "service_request"
	}
	return c.WorkflowType
}

// DomainOrDefault возвращает предметную область запроса.
func (c *WorkflowConfig) DomainOrDefault() string {
	if c.Domain == "" {
		return "general"
	}
	return c.Domain
}
