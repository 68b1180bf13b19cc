package rates

import (
	"math"
	"strings"
)

// Table — статическая таблица курсов: from → to → rate.
type Table map[string]map[string]float64

// DefaultTable — курсы, подставляемые при недоступности live API.
var DefaultTable = Table{
	"USD": {
		"EUR": 0.85, "GBP": 0.73, "JPY": 110.0, "CAD": 1.25,
		"AUD": 1.35, "CHF": 0.92, "CNY": 6.45, "INR": 74.5,
	},
	"EUR": {"USD": 1.18, "GBP": 0.86, "JPY": 129.0, "CAD": 1.47},
	"GBP": {"USD": 1.37, "EUR": 1.16, "JPY": 150.0, "CAD": 1.71},
}

// Rate возвращает курс from → to. Для одинаковых валют курс 1.0.
func (t Table) Rate(from, to string) (float64, bool) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return 1.0, true
	}
	rate, ok := t[from][to]
	return rate, ok
}

// Round2 округляет сумму до двух знаков.
// Применяется только на границе конвертации.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
