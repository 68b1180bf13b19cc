package domain

// SagaState — состояние машины состояний саги.
//
// Жизненный цикл:
//
//	PENDING → ANALYZED → ORDER_ATTEMPTED → {CONVERSION_ATTEMPTED|CONVERSION_SKIPPED}
//	        → {PAYMENT_ATTEMPTED|PAYMENT_SKIPPED}
//	        → {FULFILLMENT_ATTEMPTED|FULFILLMENT_SKIPPED}
//	        → {NOTIFIED|NOTIFICATION_SKIPPED} → SUMMARIZED → DONE
//	(из любого нефинального) → CANCELLED
type SagaState string

const (
	// SagaStatePending — сага создана, шаги ещё не выполнялись.
	SagaStatePending SagaState = "PENDING"

	// SagaStateAnalyzed — анализ запроса выполнен.
	SagaStateAnalyzed SagaState = "ANALYZED"

	// SagaStateOrderAttempted — попытка создать заказ выполнена.
	SagaStateOrderAttempted SagaState = "ORDER_ATTEMPTED"

	// SagaStateConversionAttempted — конвертация валюты выполнена.
	SagaStateConversionAttempted SagaState = "CONVERSION_ATTEMPTED"

	// SagaStateConversionSkipped — конвертация не нужна или заказ не создан.
	SagaStateConversionSkipped SagaState = "CONVERSION_SKIPPED"

	// SagaStatePaymentAttempted — попытка оплаты выполнена.
	SagaStatePaymentAttempted SagaState = "PAYMENT_ATTEMPTED"

	// SagaStatePaymentSkipped — оплата пропущена (заказ не создан).
	SagaStatePaymentSkipped SagaState = "PAYMENT_SKIPPED"

	// SagaStateFulfillmentAttempted — попытка отгрузки выполнена.
	SagaStateFulfillmentAttempted SagaState = "FULFILLMENT_ATTEMPTED"

	// SagaStateFulfillmentSkipped — отгрузка пропущена (оплата не прошла).
	SagaStateFulfillmentSkipped SagaState = "FULFILLMENT_SKIPPED"

	// SagaStateNotified — оба уведомления завершены.
	SagaStateNotified SagaState = "NOTIFIED"

	// SagaStateNotificationSkipped — уведомления пропущены (заказ не создан).
	SagaStateNotificationSkipped SagaState = "NOTIFICATION_SKIPPED"

	// SagaStateSummarized — итоговый отчёт сформирован.
	SagaStateSummarized SagaState = "SUMMARIZED"

	// SagaStateDone — сага завершена.
	SagaStateDone SagaState = "DONE"

	// SagaStateCancelled — запрос отменён до завершения.
	SagaStateCancelled SagaState = "CANCELLED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s SagaState) IsTerminal() bool {
	switch s {
	case SagaStateDone, SagaStateCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление SagaState.
func (s SagaState) String() string {
	return string(s)
}
