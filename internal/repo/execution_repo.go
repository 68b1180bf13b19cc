package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
)

// ExecutionRepo хранит историю прогонов саг.
type ExecutionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepo создаёт новый ExecutionRepo.
func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

// Save сохраняет прогон. Повторное сохранение того же ID перезаписывает запись.
func (r *ExecutionRepo) Save(ctx context.Context, exec *domain.Execution) error {
	row, err := encodeExecution(exec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO executions (id, customer_id, state, config, results, trail, report,
		                        completion_rate, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
		    results = EXCLUDED.results,
		    trail = EXCLUDED.trail,
		    report = EXCLUDED.report,
		    completion_rate = EXCLUDED.completion_rate,
		    finished_at = EXCLUDED.finished_at
	`
	_, err = r.pool.Exec(ctx, query,
		exec.ID,
		exec.Config.CustomerID,
		string(exec.State),
		row.config,
		row.results,
		row.trail,
		row.report,
		row.completionRate,
		exec.StartedAt,
		nullTime(exec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// Get возвращает прогон по ID.
func (r *ExecutionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		SELECT id, state, config, results, trail, report, started_at, finished_at
		FROM executions
		WHERE id = $1
	`
	return scanExecution(r.pool.QueryRow(ctx, query, id))
}

// ListByCustomer возвращает последние прогоны клиента, новые первыми.
func (r *ExecutionRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Execution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, state, config, results, trail, report, started_at, finished_at
		FROM executions
		WHERE customer_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, *exec)
	}
	return execs, rows.Err()
}

// --- Helpers ---

// executionRow — JSON-колонки прогона.
type executionRow struct {
	config         []byte
	results        []byte
	trail          []byte
	report         []byte
	completionRate *float64
}

func encodeExecution(exec *domain.Execution) (executionRow, error) {
	var row executionRow
	var err error

	if row.config, err = json.Marshal(exec.Config); err != nil {
		return row, fmt.Errorf("marshal config: %w", err)
	}
	if row.results, err = json.Marshal(exec.Results); err != nil {
		return row, fmt.Errorf("marshal results: %w", err)
	}
	if row.trail, err = json.Marshal(exec.Trail); err != nil {
		return row, fmt.Errorf("marshal trail: %w", err)
	}
	if exec.Report != nil {
		if row.report, err = json.Marshal(exec.Report); err != nil {
			return row, fmt.Errorf("marshal report: %w", err)
		}
		rate := exec.Report.CompletionRate
		row.completionRate = &rate
	}
	return row, nil
}

// scanExecution сканирует одну строку в Execution.
func scanExecution(row pgx.Row) (*domain.Execution, error) {
	var exec domain.Execution
	var state string
	var configJSON, resultsJSON, trailJSON, reportJSON []byte
	var finishedAt *time.Time

	err := row.Scan(
		&exec.ID,
		&state,
		&configJSON,
		&resultsJSON,
		&trailJSON,
		&reportJSON,
		&exec.StartedAt,
		&finishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}

	exec.State = domain.SagaState(state)
	if finishedAt != nil {
		exec.FinishedAt = *finishedAt
	}

	if err := json.Unmarshal(configJSON, &exec.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &exec.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	if err := json.Unmarshal(trailJSON, &exec.Trail); err != nil {
		return nil, fmt.Errorf("unmarshal trail: %w", err)
	}
	if reportJSON != nil {
		exec.Report = &domain.Report{}
		if err := json.Unmarshal(reportJSON, exec.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	exec.WorkflowSteps = exec.Config.StepLabels()

	return &exec, nil
}

// nullTime возвращает nil для нулевого времени (для NULL в БД).
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
