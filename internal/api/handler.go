package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/orchestrator"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 1 << 20

// SagaService — операции оркестратора, доступные через API.
type SagaService interface {
	Execute(ctx context.Context, cfg domain.WorkflowConfig) (*domain.Execution, error)
	RetryStep(ctx context.Context, req orchestrator.RetryRequest) (*domain.RetryResult, error)
	Find(ctx context.Context, id uuid.UUID) (*domain.Execution, error)
	Services() []steps.ServiceInfo
	ResetCounters()
}

// History — список прогонов клиента (optional).
type History interface {
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Execution, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	sagas   SagaService
	history History
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Sagas   SagaService
	History History
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sagas:   cfg.Sagas,
		history: cfg.History,
		logger:  logger,
	}
}
