package events

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nextstep-api/pkg/config"
)

func TestNewKafkaPublisherDisabledWithoutBrokers(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{Topic: "nextstep.notifications"})
	assert.Nil(t, p)

	assert.NoError(t, p.Publish(context.Background(), "user-1", map[string]string{"title": "hi"}))
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisherConfiguresWriter(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{
		Brokers:  []string{"broker-1:9092", "broker-2:9092"},
		Topic:    "nextstep.notifications",
		Username: "svc",
		Password: "secret",
		TLS:      true,
	})
	require.NotNil(t, p)

	assert.Equal(t, "nextstep.notifications", p.writer.Topic)
	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
	transport, ok := p.writer.Transport.(*kafka.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.SASL)
	assert.NotNil(t, transport.TLS)
}

func TestPublishRejectsUnmarshalableValue(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NotNil(t, p)

	err := p.Publish(context.Background(), "k", make(chan int))
	assert.Error(t, err)
}
