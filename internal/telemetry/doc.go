// Package telemetry обеспечивает наблюдаемость сервиса саг.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов, прогонов и курсов валют
//
// Все бинарники используют единый формат логирования,
// saga-api экспортирует метрики на /metrics.
package telemetry
