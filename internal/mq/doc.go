// Package mq публикует события саг в брокеры сообщений.
//
// Структура:
//   - connection.go — AMQP соединение с переподключением
//   - topology.go   — обменники, очереди и привязки RabbitMQ
//   - publisher.go  — Envelope и публикация в RabbitMQ
//   - kafka.go      — публикация в Kafka
//
// Publisher и KafkaPublisher реализуют orchestrator.EventSink.
//
// Типы событий:
//   - saga.completed — сага завершена или отменена
//   - step.retried   — шаг повторён с эскалацией
package mq
