// Package steps содержит провайдеры шагов саги и их реестр.
//
// # Обзор
//
// Каждый провайдер выполняет один вид шага (domain.StepKind) и владеет
// своей политикой отказов. Execute не возвращает ошибок: отказ шага
// записывается в domain.Outcome.
//
//	registry := steps.NewRegistry(steps.Options{PaymentQuota: 3})
//	p, err := registry.GetService(domain.StepPayment)
//	if err != nil {
//	    // вид шага не зарегистрирован
//	}
//	outcome := p.Execute(ctx, steps.PaymentParams{Amount: 100, Currency: "USD"})
//
// # Параметры
//
// Параметры типизированы: у каждого вида шага своя структура
// (OrderParams, PaymentParams, ...). Интерфейс Params закрыт, поэтому
// чужие типы передать нельзя. Параметры другого вида шага дают
// неуспешный Outcome с ErrParamsMismatch.
//
// # Политики отказов
//
//   - Probability — независимый отказ с вероятностью (order, shipping, email, sms, call_center)
//   - quota — первые N вызовов после сброса успешны, далее отказ (payment)
//   - external — live-запрос курса с fallback на таблицу (currency_conversion)
//   - never — анализ запроса
//   - fixed(0.02) — итоговый отчёт
//
// Случайность идёт через Rand: в тестах FixedRand и SequenceRand
// форсируют нужный исход, не отключая саму политику.
//
// # Квота
//
// QuotaState принадлежит Registry. Одна Registry на процесс означает
// общую квоту для всех запросов, Registry на запрос — свежую квоту
// на каждый запрос. ResetCounters сбрасывает квоту и счётчики вызовов.
//
// # Файлы пакета
//
//   - step.go     — Provider, Params, базовая часть провайдеров
//   - policy.go   — политики отказов, QuotaState
//   - rand.go     — Rand, FixedRand, SequenceRand
//   - registry.go — Registry, Options, ServiceInfo
//   - order.go, payment.go, currency.go, shipping.go, notify.go, summary.go — провайдеры
package steps
