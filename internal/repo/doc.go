// Package repo хранит историю прогонов саг в PostgreSQL.
//
// ExecutionRepo реализует orchestrator.ExecutionStore. Результаты шагов
// лежат в колонке JSON (не JSONB), чтобы сохранить порядок выполнения.
// Схема создаётся встроенными миграциями (Migrate).
package repo
