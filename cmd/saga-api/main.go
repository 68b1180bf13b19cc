// saga-api — HTTP сервис выполнения саг заказа.
//
// Конфигурация читается из окружения (и из .env, если он есть),
// см. saga-api -help.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/api"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/config"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/mq"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/orchestrator"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/rates"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/repo"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/scheduler"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/telemetry"
)

var startTime = time.Now()

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: saga-api")
		fmt.Fprintln(flag.CommandLine.Output(), config.Usage())
	}
	flag.Parse()

	// .env необязателен: в контейнере переменные приходят из окружения.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting saga-api",
		"quota_scope", cfg.QuotaScope,
		"events_backend", cfg.EventsBackend,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("saga-api failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	scope, err := orchestrator.ParseScope(cfg.QuotaScope)
	if err != nil {
		return err
	}

	// Реестр провайдеров
	opts := steps.Options{
		Rand:          steps.NewRand(cfg.RandomSeed),
		LookupTimeout: cfg.RatesTimeout,
		PaymentQuota:  cfg.PaymentQuota,
		Logger:        logger,
	}
	if cfg.PaymentQuota == 0 {
		// В Options ноль означает квоту по умолчанию.
		opts.PaymentQuota = -1
	}
	if cfg.RatesAPIURL != "" {
		opts.RateLookup = rates.NewClient(rates.ClientConfig{
			BaseURL: cfg.RatesAPIURL,
			APIKey:  cfg.RatesAPIKey,
			Timeout: cfg.RatesTimeout,
			Logger:  logger,
		})
		logger.Info("live exchange rates enabled", "url", cfg.RatesAPIURL)
	}
	newRegistry := func() *steps.Registry { return steps.NewRegistry(opts) }

	orchCfg := orchestrator.Config{
		Registry:    newRegistry(),
		NewRegistry: newRegistry,
		Scope:       scope,
		Logger:      logger,
	}

	// История прогонов
	var history api.History
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database")

		if err := repo.Migrate(pool, logger); err != nil {
			return err
		}

		executions := repo.NewExecutionRepo(pool)
		orchCfg.Store = executions
		history = executions
	} else {
		logger.Info("execution history disabled, DB_URL is empty")
	}

	// События
	sink, closeSink, err := openEventSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()
	if sink != nil {
		orchCfg.Events = sink
	}

	orch := orchestrator.New(orchCfg)

	// Окно квоты оплаты
	if cfg.QuotaResetCron != "" {
		if scope != orchestrator.ScopeProcess {
			logger.Warn("QUOTA_RESET_CRON ignored for request quota scope")
		} else {
			resetter, err := scheduler.New(scheduler.Config{
				Target:   orch,
				CronExpr: cfg.QuotaResetCron,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("QUOTA_RESET_CRON: %w", err)
			}
			go resetter.Run(ctx)
		}
	}

	handler := api.NewHandler(api.Config{
		Sagas:   orch,
		History: history,
		Logger:  logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s active=%d", time.Since(startTime).Round(time.Second), orch.ActiveCount())
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	addr := ":" + cfg.APIPort
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

// openEventSink подключает получатель событий по EVENTS_BACKEND.
// Для none возвращает nil sink.
func openEventSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (orchestrator.EventSink, func(), error) {
	switch cfg.EventsBackend {
	case config.EventsRabbitMQ:
		conn, err := mq.Dial(mq.ConnectionConfig{URL: cfg.RabbitMQURL, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		if err := mq.SetupTopology(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("setup topology: %w", err)
		}
		conn.OnReconnect(func(ctx context.Context) error {
			return mq.SetupTopology(ctx, conn)
		})
		logger.Info("publishing saga events to rabbitmq", "topology", mq.TopologyInfo())
		return mq.NewPublisher(conn, logger), closeWith(conn, logger), nil

	case config.EventsKafka:
		kp, err := mq.NewKafkaPublisher(mq.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		logger.Info("publishing saga events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return kp, closeWith(kp, logger), nil

	default:
		return nil, func() {}, nil
	}
}

func closeWith(c io.Closer, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close event sink", "error", err)
		}
	}
}
