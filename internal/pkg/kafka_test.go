package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaProducerValidates(t *testing.T) {
	_, err := NewKafkaProducer(KafkaConfig{Topic: "t"})
	assert.Error(t, err)
	_, err = NewKafkaProducer(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "kampung.activity"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestEventMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	msg := eventMessage(Event{AggregateID: 42, Type: "groupbuy.joined", Payload: []byte(`{"qty":2}`), OccurredAt: at})
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, `{"qty":2}`, string(msg.Value))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "groupbuy.joined", string(msg.Headers[0].Value))
}
