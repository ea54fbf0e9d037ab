package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are published after the owning transaction
// commits, so subscribers only ever see durable state changes.
const (
	EventCollaborationProposed EventType = "collaboration.proposed"
	EventCollaborationAccepted EventType = "collaboration.accepted"
	EventCollaborationDeclined EventType = "collaboration.declined"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Collaboration Events
// ═══════════════════════════════════════════════════════════════════════════

// CollaborationEvent is emitted for every committed request transition.
// AggregateID is the collaboration request id.
type CollaborationEvent struct {
	BaseEvent
	CardID                string `json:"card_id"`
	Tier                  int    `json:"tier"`
	SeekingMentorshipID   string `json:"seeking_mentorship_id"`
	SuggestedMentorshipID string `json:"suggested_mentorship_id"`
	CollaborationID       string `json:"collaboration_id,omitempty"`
}

// Payload implements Event interface.
func (e CollaborationEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"card_id":                 e.CardID,
		"tier":                    e.Tier,
		"seeking_mentorship_id":   e.SeekingMentorshipID,
		"suggested_mentorship_id": e.SuggestedMentorshipID,
	}
	if e.CollaborationID != "" {
		p["collaboration_id"] = e.CollaborationID
	}
	return p
}

// NewCollaborationEvent creates a new CollaborationEvent.
func NewCollaborationEvent(t EventType, requestID, cardID string, tier int, seeking, suggested string) CollaborationEvent {
	return CollaborationEvent{
		BaseEvent:             NewBaseEvent(t, requestID),
		CardID:                cardID,
		Tier:                  tier,
		SeekingMentorshipID:   seeking,
		SuggestedMentorshipID: suggested,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
