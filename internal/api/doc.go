// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (SagaService, History, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (request id, logging, recovery)
//   - response.go        — унифицированные JSON-ответы и отображение ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - saga_handler.go    — обработчики для /sagas
//   - service_handler.go — обработчики для /services
//
// Отказы шагов не являются ошибками HTTP: сага всегда отвечает 200,
// результат каждого шага лежит в results.
package api
