package domain

import "time"

type EventType string

const (
	EventOrderPlaced    EventType = "OrderPlaced"
	EventOrderCancelled EventType = "OrderCancelled"
	EventOrderScheduled EventType = "OrderScheduled"
	EventOrderPaid      EventType = "OrderPaid"
)

type OrderEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Order     Order     `json:"order"`
	At        time.Time `json:"at"`
}
