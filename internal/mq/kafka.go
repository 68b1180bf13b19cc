package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic — топик событий саг.
const DefaultKafkaTopic = "saga-events"

// KafkaConfig — конфигурация KafkaPublisher.
type KafkaConfig struct {
	// Brokers — адреса брокеров host:port.
	Brokers []string

	// Topic — топик событий (default: saga-events).
	Topic string

	// WriteTimeout — таймаут записи (default: 10s).
	WriteTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// KafkaPublisher публикует события саг в Kafka.
// Ключ сообщения — ключ события, поэтому события одной саги
// попадают в одну партицию.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher создаёт KafkaPublisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultKafkaTopic
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           cfg.WriteTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: cfg.Logger.With("component", "kafka"),
	}, nil
}

// PublishEvent публикует событие в топик.
func (k *KafkaPublisher) PublishEvent(ctx context.Context, eventType, key string, payload any) error {
	env := NewEnvelope(eventType, key, payload)

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(eventType)},
			{Key: "id", Value: []byte(env.ID)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", k.writer.Topic, err)
	}

	k.logger.Debug("event published", "topic", k.writer.Topic, "type", eventType, "message_id", env.ID)
	return nil
}

// Close сбрасывает буфер и закрывает writer.
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
