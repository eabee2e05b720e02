// Package events carries domain events from aggregates to the message bus.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface all domain events must implement.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() string
	OccurredAt() time.Time
}

// BaseEvent provides the DomainEvent metadata. Concrete events embed it
// with a `json:"-"` tag and carry their payload in exported fields.
type BaseEvent struct {
	id            uuid.UUID
	eventType     string
	aggregateID   uuid.UUID
	aggregateType string
	tenantID      string
	occurredAt    time.Time
}

// NewBaseEvent creates a BaseEvent. The event ID is derived from the
// aggregate ID and event type, so replaying the same aggregate yields the
// same event IDs and consumers can deduplicate.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType, tenantID string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		id:            uuid.NewSHA1(aggregateID, []byte(eventType)),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		tenantID:      tenantID,
		occurredAt:    occurredAt.UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.id }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }
func (e BaseEvent) AggregateType() string  { return e.aggregateType }
func (e BaseEvent) TenantID() string       { return e.tenantID }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }

// EventCollector is embedded in aggregates to collect domain events during state transitions.
type EventCollector struct {
	events []DomainEvent
}

// Record appends a domain event to the collector.
func (c *EventCollector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns the collected domain events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	return append([]DomainEvent{}, c.events...)
}

// ClearEvents returns the collected domain events and clears the collector.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.events
	c.events = nil
	if collected == nil {
		return []DomainEvent{}
	}
	return collected
}

// Envelope is the wire form of a domain event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	TenantID      string          `json:"tenant_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps event, JSON-encoding the event value as the payload.
func NewEnvelope(event DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", event.EventType(), err)
	}
	return Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		TenantID:      event.TenantID(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}, nil
}
