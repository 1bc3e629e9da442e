package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka notifier.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration // default 10s
}

// KafkaNotifier publishes alerts as JSON to a Kafka topic, keyed by
// Alert.Key so one asset+setup stays on one partition.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// NewKafkaNotifier creates a synchronous Kafka writer.
func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: timeout,
		BatchSize:    1,
	}
	return &KafkaNotifier{writer: w, topic: cfg.Topic}, nil
}

func (k *KafkaNotifier) Send(ctx context.Context, alert Alert) error {
	if alert.TS.IsZero() {
		alert.TS = time.Now().UTC()
	}
	value, err := json.Marshal(alert)
	if err != nil {
		return deliveryError("kafka", "marshal", err)
	}
	msg := kafka.Message{
		Key:   []byte(alert.Key),
		Value: value,
		Time:  alert.TS,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return deliveryError("kafka", "write", err)
	}
	log.Printf("[kafka] published alert to %s: %s", k.topic, alert.Title)
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
