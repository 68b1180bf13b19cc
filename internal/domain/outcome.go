package domain

import (
	"encoding/json"
	"maps"
	"time"
)

// Source — происхождение значения во внешне-зависимом шаге.
type Source string

const (
	// SourceNone — шаг не зависит от внешних данных.
	SourceNone Source = ""

	// SourceLive — значение получено из live-запроса.
	SourceLive Source = "live"

	// SourceFallback — live-запрос не удался, значение взято из статической таблицы.
	SourceFallback Source = "fallback"

	// SourceNoConversion — валюты совпадают, конвертация не требуется.
	SourceNoConversion Source = "no_conversion"
)

// Outcome — результат одного вызова провайдера.
//
// Создаётся один раз на вызов и после этого не изменяется: поля закрыты,
// With* возвращают копию, Payload отдаёт копию map.
type Outcome struct {
	step        StepKind
	success     bool
	payload     map[string]any
	errorReason string
	attempt     int
	source      Source
	at          time.Time
}

// Succeeded создаёт успешный Outcome.
func Succeeded(step StepKind, payload map[string]any) Outcome {
	return Outcome{
		step:    step,
		success: true,
		payload: maps.Clone(payload),
		attempt: 1,
		at:      time.Now().UTC(),
	}
}

// Failed создаёт неуспешный Outcome с причиной.
func Failed(step StepKind, reason string) Outcome {
	return Outcome{
		step:        step,
		success:     false,
		errorReason: reason,
		attempt:     1,
		at:          time.Now().UTC(),
	}
}

// WithSource возвращает копию с тегом источника.
func (o Outcome) WithSource(src Source) Outcome {
	o.source = src
	return o
}

// WithAttempt возвращает копию с номером попытки.
func (o Outcome) WithAttempt(attempt int) Outcome {
	if attempt < 1 {
		attempt = 1
	}
	o.attempt = attempt
	return o
}

// WithPayload возвращает копию с payload (для неуспешных шагов с частичными данными).
func (o Outcome) WithPayload(payload map[string]any) Outcome {
	o.payload = maps.Clone(payload)
	return o
}

// Step возвращает вид шага.
func (o Outcome) Step() StepKind { return o.step }

// Success возвращает true, если шаг завершился успешно.
func (o Outcome) Success() bool { return o.success }

// ErrorReason возвращает причину неудачи (пусто для успешных шагов).
func (o Outcome) ErrorReason() string { return o.errorReason }

// Attempt возвращает номер попытки (начиная с 1).
func (o Outcome) Attempt() int { return o.attempt }

// Source возвращает тег источника данных.
func (o Outcome) Source() Source { return o.source }

// At возвращает время создания.
func (o Outcome) At() time.Time { return o.at }

// Payload возвращает копию данных шага.
func (o Outcome) Payload() map[string]any {
	if o.payload == nil {
		return map[string]any{}
	}
	return maps.Clone(o.payload)
}

// StringValue возвращает строку из payload.
func (o Outcome) StringValue(key string) string {
	if s, ok := o.payload[key].(string); ok {
		return s
	}
	return ""
}

// FloatValue возвращает число из payload.
func (o Outcome) FloatValue(key string) (float64, bool) {
	switch v := o.payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// outcomeJSON — представление Outcome для сериализации.
type outcomeJSON struct {
	Step        StepKind       `json:"step"`
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data,omitempty"`
	ErrorReason string         `json:"error_message,omitempty"`
	Attempt     int            `json:"attempt"`
	Source      Source         `json:"source,omitempty"`
	At          time.Time      `json:"at"`
}

// MarshalJSON реализует json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON{
		Step:        o.step,
		Success:     o.success,
		Data:        o.payload,
		ErrorReason: o.errorReason,
		Attempt:     o.attempt,
		Source:      o.source,
		At:          o.at,
	})
}

// UnmarshalJSON реализует json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var v outcomeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Outcome{
		step:        v.Step,
		success:     v.Success,
		payload:     v.Data,
		errorReason: v.ErrorReason,
		attempt:     v.Attempt,
		source:      v.Source,
		at:          v.At,
	}
	return nil
}
