package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Envelope — конверт события, общий для RabbitMQ и Kafka.
type Envelope struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события (saga.completed, step.retried).
	Type string `json:"type"`

	// Key — ключ партиционирования (ID саги или шаг).
	Key string `json:"key"`

	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope создаёт конверт с новым ID.
func NewEnvelope(eventType, key string, payload any) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher публикует события саг в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// PublishEvent публикует событие в обменник saga.events.
func (p *Publisher) PublishEvent(ctx context.Context, eventType, key string, payload any) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKeyFor(eventType), NewEnvelope(eventType, key, payload))
}

// Publish публикует конверт в указанный обменник.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, env *Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    env.ID,
				Type:         env.Type,
				Timestamp:    env.Timestamp,
				Headers:      amqp.Table{"key": env.Key},
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("event published",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", env.ID,
		)
		return nil
	})
}
