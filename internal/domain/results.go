package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateStep — шаг уже записан в ResultsMap.
var ErrDuplicateStep = errors.New("step already recorded")

// ResultsMap — упорядоченная запись результатов шагов одной саги.
//
// Порядок вставки совпадает с порядком выполнения. Ключ появляется только
// после реальной попытки выполнить шаг: отсутствие ключа означает
// "пропущен из-за упавшей зависимости", а не "упал".
//
// Нулевое значение готово к использованию.
type ResultsMap struct {
	order   []StepKind
	entries map[StepKind]Outcome
}

// NewResultsMap создаёт пустой ResultsMap.
func NewResultsMap() ResultsMap {
	return ResultsMap{entries: make(map[StepKind]Outcome)}
}

// Add записывает результат шага. Повторная запись того же шага запрещена.
func (r *ResultsMap) Add(step StepKind, outcome Outcome) error {
	if r.entries == nil {
		r.entries = make(map[StepKind]Outcome)
	}
	if _, exists := r.entries[step]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, step)
	}
	r.order = append(r.order, step)
	r.entries[step] = outcome
	return nil
}

// Get возвращает результат шага.
func (r ResultsMap) Get(step StepKind) (Outcome, bool) {
	o, ok := r.entries[step]
	return o, ok
}

// Has проверяет, был ли шаг выполнен.
func (r ResultsMap) Has(step StepKind) bool {
	_, ok := r.entries[step]
	return ok
}

// Succeeded проверяет, что шаг выполнен и завершился успешно.
func (r ResultsMap) Succeeded(step StepKind) bool {
	o, ok := r.entries[step]
	return ok && o.Success()
}

// Keys возвращает шаги в порядке выполнения.
func (r ResultsMap) Keys() []StepKind {
	keys := make([]StepKind, len(r.order))
	copy(keys, r.order)
	return keys
}

// Len возвращает количество выполненных шагов.
func (r ResultsMap) Len() int {
	return len(r.order)
}

// Each обходит результаты в порядке выполнения.
func (r ResultsMap) Each(fn func(step StepKind, outcome Outcome)) {
	for _, step := range r.order {
		fn(step, r.entries[step])
	}
}

// Clone возвращает независимую копию.
func (r ResultsMap) Clone() ResultsMap {
	c := ResultsMap{
		order:   make([]StepKind, len(r.order)),
		entries: make(map[StepKind]Outcome, len(r.entries)),
	}
	copy(c.order, r.order)
	for k, v := range r.entries {
		c.entries[k] = v
	}
	return c
}

// With возвращает копию, в которой изменён только результат шага step.
// Если шага не было, он добавляется в конец. Исходный ResultsMap не меняется.
func (r ResultsMap) With(step StepKind, outcome Outcome) ResultsMap {
	c := r.Clone()
	if _, exists := c.entries[step]; !exists {
		c.order = append(c.order, step)
	}
	c.entries[step] = outcome
	return c
}

// MarshalJSON кодирует ResultsMap как JSON-объект с ключами в порядке выполнения.
func (r ResultsMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, step := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(step))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.entries[step])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", step, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON декодирует JSON-объект, сохраняя порядок ключей.
func (r *ResultsMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("results: expected object, got %v", tok)
	}

	res := NewResultsMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("results: expected key, got %v", tok)
		}
		var o Outcome
		if err := dec.Decode(&o); err != nil {
			return fmt.Errorf("results: decode %s: %w", key, err)
		}
		if err := res.Add(StepKind(key), o); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = res
	return nil
}
