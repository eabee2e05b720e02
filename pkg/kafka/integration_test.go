//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/pkg/testutil"
)

func TestProducer_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.NewKafkaContainer(ctx, t)
	p, err := NewProducer(Config{Brokers: kc.Brokers, ClientID: "skills-test"})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(ctx, "skills.events", Message{
		Key:     []byte("evaluation-1"),
		Value:   []byte(`{"event_type":"skills.evaluation.completed"}`),
		Headers: map[string]string{"event_type": "skills.evaluation.completed"},
	}))

	r := kafkago.NewReader(kafkago.ReaderConfig{Brokers: kc.Brokers, Topic: "skills.events", Partition: 0})
	defer r.Close()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "evaluation-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
}
