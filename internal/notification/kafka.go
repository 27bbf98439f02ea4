package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig configures the event publisher
type KafkaConfig struct {
	Brokers      []string      `json:"brokers" mapstructure:"brokers"`
	Topic        string        `json:"topic" mapstructure:"topic"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// DefaultKafkaConfig returns sensible defaults for local development.
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "compliance.events",
		WriteTimeout: 5 * time.Second,
	}
}

type event struct {
	ID        string                 `json:"id"`
	TenantID  string                 `json:"tenant_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	EmittedAt time.Time              `json:"emitted_at"`
}

// KafkaNotifier publishes compliance events to a Kafka topic, keyed by
// tenant so per-tenant ordering is preserved.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(cfg KafkaConfig, logger *zap.SugaredLogger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

// Notify publishes one event. Errors are returned for the caller to log;
// callers must never let them interrupt core logic.
func (n *KafkaNotifier) Notify(ctx context.Context, tenantID uuid.UUID, eventType string, payload map[string]interface{}) error {
	value, err := json.Marshal(event{
		ID:        uuid.New().String(),
		TenantID:  tenantID.String(),
		EventType: eventType,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(tenantID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	n.logger.Debugw("event published", "tenant_id", tenantID, "event_type", eventType)
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier writes events to the log only. Used when no broker is
// configured and in tests.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, tenantID uuid.UUID, eventType string, payload map[string]interface{}) error {
	n.logger.Infow("notification", "tenant_id", tenantID, "event_type", eventType, "payload", payload)
	return nil
}
