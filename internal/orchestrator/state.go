package orchestrator

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// transitions — допустимые переходы машины состояний саги.
// CANCELLED достижим из любого нефинального состояния.
var transitions = map[domain.SagaState][]domain.SagaState{
	domain.SagaStatePending:              {domain.SagaStateAnalyzed},
	domain.SagaStateAnalyzed:             {domain.SagaStateOrderAttempted},
	domain.SagaStateOrderAttempted:       {domain.SagaStateConversionAttempted, domain.SagaStateConversionSkipped},
	domain.SagaStateConversionAttempted:  {domain.SagaStatePaymentAttempted},
	domain.SagaStateConversionSkipped:    {domain.SagaStatePaymentAttempted, domain.SagaStatePaymentSkipped},
	domain.SagaStatePaymentAttempted:     {domain.SagaStateFulfillmentAttempted, domain.SagaStateFulfillmentSkipped},
	domain.SagaStatePaymentSkipped:       {domain.SagaStateFulfillmentSkipped},
	domain.SagaStateFulfillmentAttempted: {domain.SagaStateNotified},
	domain.SagaStateFulfillmentSkipped:   {domain.SagaStateNotified, domain.SagaStateNotificationSkipped},
	domain.SagaStateNotified:             {domain.SagaStateSummarized},
	domain.SagaStateNotificationSkipped:  {domain.SagaStateSummarized},
	domain.SagaStateSummarized:           {domain.SagaStateDone},
}

// SagaRun — состояние одного прогона саги в памяти.
//
// Создаётся на каждый вызов Execute и никогда не разделяется между
// прогонами: отменённый прогон не может повлиять на чужой ResultsMap.
type SagaRun struct {
	id      uuid.UUID
	config  domain.WorkflowConfig
	results domain.ResultsMap
	state   domain.SagaState
	trail   []domain.SagaState
	started time.Time

	// mu — мьютекс для потокобезопасного доступа.
	mu sync.RWMutex
}

// NewSagaRun создаёт прогон в состоянии PENDING.
func NewSagaRun(cfg domain.WorkflowConfig) *SagaRun {
	return &SagaRun{
		id:      uuid.New(),
		config:  cfg,
		results: domain.NewResultsMap(),
		state:   domain.SagaStatePending,
		trail:   []domain.SagaState{domain.SagaStatePending},
		started: time.Now().UTC(),
	}
}

// ID возвращает идентификатор прогона.
func (s *SagaRun) ID() uuid.UUID {
	return s.id
}

// State возвращает текущее состояние.
func (s *SagaRun) State() domain.SagaState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Advance переводит прогон в следующее состояние.
func (s *SagaRun) Advance(next domain.SagaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next == domain.SagaStateCancelled {
		if s.state.IsTerminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
		}
	} else if !slices.Contains(transitions[s.state], next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}

	s.state = next
	s.trail = append(s.trail, next)
	return nil
}

// Record записывает результат шага.
func (s *SagaRun) Record(step domain.StepKind, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Add(step, outcome)
}

// Results возвращает копию результатов.
func (s *SagaRun) Results() domain.ResultsMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results.Clone()
}

// Snapshot собирает Execution из текущего состояния.
func (s *SagaRun) Snapshot() *domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := make([]domain.SagaState, len(s.trail))
	copy(trail, s.trail)

	return &domain.Execution{
		ID:            s.id,
		Config:        s.config,
		Results:       s.results.Clone(),
		State:         s.state,
		Trail:         trail,
		WorkflowSteps: s.config.StepLabels(),
		StartedAt:     s.started,
		FinishedAt:    time.Now().UTC(),
	}
}

