package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrCancelled — запрос отменён до завершения саги.
	// Execute возвращает вместе с ней частичный Execution.
	ErrCancelled = errors.New("saga cancelled")

	// ErrNotRetryable — шаг нельзя повторить отдельно.
	ErrNotRetryable = errors.New("step is not retryable")

	// ErrInvalidTransition — недопустимый переход машины состояний.
	ErrInvalidTransition = errors.New("invalid saga state transition")

	// ErrProviderFault — провайдер завершился паникой. Не возвращается
	// из Execute: попадает в причину неуспешного Outcome шага.
	ErrProviderFault = errors.New("provider fault")

	// ErrHistoryDisabled — хранилище истории не настроено.
	ErrHistoryDisabled = errors.New("execution history is disabled")
)
