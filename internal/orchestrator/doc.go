// Package orchestrator выполняет саги и повторы отдельных шагов.
//
// Orchestrator отвечает за:
//   - Проверку обязательных полей конфигурации (до первого вызова провайдера)
//   - Выполнение шагов в порядке зависимостей через steps.Registry
//   - Пропуск шагов с упавшей жёсткой зависимостью (пропуск — не отказ)
//   - Параллельную отправку двух уведомлений с ожиданием обоих
//   - Построение итогового отчёта
//   - Повтор отдельного шага с обязательной эскалацией
//
// Машина состояний:
//
//	PENDING → ANALYZED → ORDER_ATTEMPTED → CONVERSION_{ATTEMPTED|SKIPPED}
//	        → PAYMENT_{ATTEMPTED|SKIPPED} → FULFILLMENT_{ATTEMPTED|SKIPPED}
//	        → NOTIFIED | NOTIFICATION_SKIPPED → SUMMARIZED → DONE
//
// Отмена контекста проверяется между шагами и переводит прогон в CANCELLED.
//
// Квота оплаты живёт в Registry. ScopeProcess разделяет её между всеми
// запросами процесса, ScopeRequest создаёт Registry на каждый запрос.
package orchestrator
