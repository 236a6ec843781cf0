package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/noah-isme/nextstep-api/pkg/config"
)

const publishTimeout = 5 * time.Second

// KafkaPublisher writes JSON events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns nil when no brokers are configured, which callers
// treat as "publishing disabled".
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	if cfg.TLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Publish marshals value and writes it keyed by key. A nil publisher is a no-op.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	if p == nil || p.writer == nil {
		return nil
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
