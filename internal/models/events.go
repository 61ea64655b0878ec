package models

import "time"

// Event types
const (
	EventTypeOrderFinalized = "ORDER_FINALIZED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderFinalizedEvent published when a conversation completes an order
type OrderFinalizedEvent struct {
	BaseEvent
	Order Order `json:"order"`
}
