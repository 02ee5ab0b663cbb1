package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeCreated    EventType = "created"
	EventTypePending    EventType = "pending"
	EventTypeReconciled EventType = "reconciled"
	EventTypeVoided     EventType = "voided"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSettlement EntityType = "settlement"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "settlement.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "settlement"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SettlementCreated creates a settlement.created event
func SettlementCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSettlement, payload)
}

// SettlementPending creates a settlement.pending event
func SettlementPending(payload interface{}) Event {
	return NewEvent(EventTypePending, EntityTypeSettlement, payload)
}

// SettlementReconciled creates a settlement.reconciled event
func SettlementReconciled(payload interface{}) Event {
	return NewEvent(EventTypeReconciled, EntityTypeSettlement, payload)
}

// SettlementVoided creates a settlement.voided event
func SettlementVoided(payload interface{}) Event {
	return NewEvent(EventTypeVoided, EntityTypeSettlement, payload)
}
