package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/event"
	"github.com/bibbank/skills/pkg/events"
	pkgkafka "github.com/bibbank/skills/pkg/kafka"
	"github.com/bibbank/skills/pkg/testutil"
)

type mockProducer struct {
	topic    string
	messages []pkgkafka.Message
	err      error
}

func (m *mockProducer) Publish(_ context.Context, topic string, messages ...pkgkafka.Message) error {
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return m.err
}

func testEvents() []events.DomainEvent {
	id := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	return []events.DomainEvent{
		event.NewEvaluationCompleted(id, testutil.TestTenantID, "supplier-risk", "1.0.0", 1, testutil.FixedTime),
		event.NewAlertRaised(id, testutil.TestTenantID, "supplier-risk", []string{"dual-source"}, testutil.FixedTime),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, "skills.events", slog.New(slog.DiscardHandler))

	require.NoError(t, pub.Publish(context.Background(), testEvents()...))

	assert.Equal(t, "skills.events", producer.topic)
	require.Len(t, producer.messages, 2)
	for i, msg := range producer.messages {
		assert.Equal(t, "00000000-0000-0000-0000-0000000000aa", string(msg.Key))
		assert.Equal(t, event.AggregateTypeEvaluation, msg.Headers["aggregate_type"])

		var env events.Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &env))
		assert.Equal(t, testEvents()[i].EventType(), env.EventType)
		assert.Equal(t, msg.Headers["event_type"], env.EventType)
		assert.Equal(t, testutil.TestTenantID.String(), env.TenantID)
	}

	var payload map[string]any
	require.NoError(t, json.Unmarshal(mustEnvelope(t, producer.messages[1].Value).Payload, &payload))
	assert.Equal(t, "supplier-risk", payload["skill"])
}

func mustEnvelope(t *testing.T, b []byte) events.Envelope {
	t.Helper()
	var env events.Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	return env
}

func TestKafkaPublisher_Errors(t *testing.T) {
	producer := &mockProducer{err: errors.New("leader not available")}
	pub := NewKafkaPublisher(producer, "skills.events", slog.New(slog.DiscardHandler))

	err := pub.Publish(context.Background(), testEvents()...)
	testutil.AssertErrorContains(t, err, "skills.events")

	producer.err = nil
	producer.messages = nil
	require.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, producer.messages)
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), testEvents()...))
	assert.Contains(t, buf.String(), event.EventTypeEvaluationCompleted)
	assert.Contains(t, buf.String(), event.EventTypeAlertRaised)
}
