package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeEvents Exchange = "saga.events"
	ExchangeDLQ    Exchange = "saga.dlq"
)

// Queues.
const (
	QueueSagasCompleted Queue = "sagas.completed"
	QueueStepsRetried   Queue = "steps.retried"
	QueueDLQEvents      Queue = "dlq.events"
)

// Routing keys совпадают с типами событий.
const (
	RoutingKeySagaCompleted RoutingKey = "saga.completed"
	RoutingKeyStepRetried   RoutingKey = "step.retried"
	RoutingKeyDLQ           RoutingKey = "events"
)

// RoutingKeyFor возвращает ключ маршрутизации для типа события.
// Неизвестные типы уходят под "saga.other" и не попадают ни в одну очередь.
func RoutingKeyFor(eventType string) RoutingKey {
	if strings.HasPrefix(eventType, "saga.") || strings.HasPrefix(eventType, "step.") {
		return RoutingKey(eventType)
	}
	return "saga.other"
}

// SetupTopology объявляет обменники и очереди событий саг.
// Операция идемпотентна и повторяется после переподключения.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(string(ExchangeEvents), "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}
		if err := ch.ExchangeDeclare(string(ExchangeDLQ), "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeDLQ, err)
		}

		// Отклонённые потребителями события уходят в DLQ.
		deadLetter := amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQ),
		}

		bindings := []struct {
			queue    Queue
			key      RoutingKey
			exchange Exchange
			args     amqp.Table
		}{
			{QueueSagasCompleted, RoutingKeySagaCompleted, ExchangeEvents, deadLetter},
			{QueueStepsRetried, RoutingKeyStepRetried, ExchangeEvents, deadLetter},
			{QueueDLQEvents, RoutingKeyDLQ, ExchangeDLQ, nil},
		}

		for _, b := range bindings {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования при старте.
func TopologyInfo() string {
	return `
  saga.events (topic)
  ├── sagas.completed [routing: saga.completed]  DLQ: dlq.events
  └── steps.retried   [routing: step.retried]    DLQ: dlq.events

  saga.dlq (direct)
  └── dlq.events [routing: events]
`
}
