package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Resetter сбрасывает счётчики провайдеров (окно квоты оплаты).
type Resetter interface {
	ResetCounters()
}

// QuotaResetter периодически открывает новое окно квоты оплаты.
//
// Нужен только для ScopeProcess: при ScopeRequest квота живёт один запрос.
type QuotaResetter struct {
	target Resetter
	expr   string
	sched  cron.Schedule
	logger *slog.Logger

	resets atomic.Int64
}

// Config — конфигурация QuotaResetter.
type Config struct {
	// Target — чьи счётчики сбрасывать (обычно *orchestrator.Orchestrator).
	Target Resetter

	// CronExpr — расписание сброса, например "0 * * * *" или "@every 15m".
	CronExpr string

	// Logger
	Logger *slog.Logger
}

// New создаёт QuotaResetter. Возвращает ошибку для невалидного выражения.
func New(cfg Config) (*QuotaResetter, error) {
	sched, err := ParseCronExpr(cfg.CronExpr)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuotaResetter{
		target: cfg.Target,
		expr:   cfg.CronExpr,
		sched:  sched,
		logger: logger.With("component", "quota-resetter"),
	}, nil
}

// Reset сбрасывает квоту немедленно.
func (q *QuotaResetter) Reset() {
	q.target.ResetCounters()
	n := q.resets.Add(1)
	q.logger.Info("quota window reset", "resets", n, "next", q.sched.Next(time.Now()).UTC())
}

// Resets возвращает количество выполненных сбросов.
func (q *QuotaResetter) Resets() int64 {
	return q.resets.Load()
}

// Run запускает cron и блокируется до отмены ctx.
// Текущий сброс (если он идёт) дожидается завершения.
func (q *QuotaResetter) Run(ctx context.Context) {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))
	c.Schedule(q.sched, cron.FuncJob(q.Reset))
	c.Start()

	q.logger.Info("quota resetter started", "cron", q.expr, "next", q.sched.Next(time.Now()).UTC())

	<-ctx.Done()
	<-c.Stop().Done()

	q.logger.Info("quota resetter stopped", "resets", q.resets.Load())
}
