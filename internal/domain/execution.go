package domain

import (
	"time"

	"github.com/google/uuid"
)

// Execution — результат одного прогона саги.
//
// Создаётся оркестратором на каждый запрос. Состояние одного прогона
// никогда не разделяется с другими прогонами.
type Execution struct {
	// ID — уникальный идентификатор прогона.
	ID uuid.UUID `json:"id"`

	// Config — конфигурация, с которой выполнялась сага.
	Config WorkflowConfig `json:"config"`

	// Results — результаты шагов в порядке выполнения.
	Results ResultsMap `json:"results"`

	// State — последнее достигнутое состояние.
	State SagaState `json:"state"`

	// Trail — все пройденные состояния по порядку.
	Trail []SagaState `json:"trail"`

	// Report — сводка, построенная по финальному ResultsMap.
	// Nil, если прогон был отменён до формирования отчёта.
	Report *Report `json:"report,omitempty"`

	// WorkflowSteps — метки шагов для отображения.
	WorkflowSteps []string `json:"workflow_steps"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность выполнения.
func (e *Execution) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// IsCancelled возвращает true, если прогон был отменён.
func (e *Execution) IsCancelled() bool {
	return e.State == SagaStateCancelled
}

// RetryResult — результат повтора одного шага с эскалацией.
type RetryResult struct {
	// Step — повторённый шаг.
	Step StepKind `json:"step"`

	// Outcome — свежий результат шага.
	Outcome Outcome `json:"outcome"`

	// Channel — канал эскалации.
	Channel Channel `json:"channel"`

	// Escalation — результат отправки уведомления (отправляется всегда).
	Escalation Outcome `json:"escalation"`

	// WorkflowSteps — метки шагов для отображения.
	WorkflowSteps []string `json:"workflow_steps"`
}
