package steps

import (
	"math/rand"
	"sync"
	"time"
)

// Rand — источник случайности для политик отказов.
//
// Вынесен в интерфейс, чтобы тесты могли детерминированно форсировать
// успех или отказ, не отключая саму политику.
type Rand interface {
	// Float64 возвращает значение в [0.0, 1.0).
	Float64() float64
}

// lockedRand — потокобезопасная обёртка над math/rand.
// Уведомления выполняются параллельно и делят один источник.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand создаёт источник с заданным seed.
// seed == 0 означает seed от текущего времени.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// FixedRand всегда возвращает одно и то же значение.
//
//	FixedRand(0.99) — все вероятностные политики проходят
//	FixedRand(0)    — все вероятностные политики падают
type FixedRand float64

func (f FixedRand) Float64() float64 { return float64(f) }

// SequenceRand возвращает значения по кругу.
type SequenceRand struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequenceRand создаёт SequenceRand. Пустая последовательность даёт 0.99.
func NewSequenceRand(values ...float64) *SequenceRand {
	return &SequenceRand{values: values}
}

func (s *SequenceRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0.99
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}
