package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"todoapp/internal/config"
	"todoapp/internal/notify"
	"todoapp/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic creates the notification topic with configured partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topic exists), app still runs.
func EnsureTopic(ctx context.Context, cfg *config.Config) {
	if len(cfg.KafkaBrokers) == 0 {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaTopic, "partitions", cfg.KafkaPartitions)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher puts notification messages on a Kafka topic for the worker
// consumers. The writer is async, so Notify never waits on the broker.
type Publisher struct {
	writer messageWriter
}

// NewPublisher builds an async Kafka writer for the notification topic.
func NewPublisher(ctx context.Context, cfg *config.Config) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error(context.Background(), "Kafka notification delivery failed", "error", err, "count", len(messages))
			}
		},
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	return &Publisher{writer: w}
}

// Notify publishes msg. Failures are logged, never returned.
func (p *Publisher) Notify(ctx context.Context, msg notify.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error(ctx, "Marshal notification failed", "error", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: payload,
	})
	if err != nil {
		logger.Error(ctx, "Publish notification failed", "error", err, "kind", msg.Kind)
	}
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

// Decode parses a Kafka payload back into a notification message.
func Decode(payload []byte) (notify.Message, error) {
	var msg notify.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return notify.Message{}, fmt.Errorf("decode notification: %w", err)
	}
	if msg.To == "" {
		return notify.Message{}, fmt.Errorf("decode notification: missing recipient")
	}
	return msg, nil
}
