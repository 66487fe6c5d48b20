package outbox

import "time"

// Aggregates the chat service publishes events for.
const (
	AggregateOrder   = "order"
	AggregatePayment = "payment"
)

const headerSessionID = "session_id"

// Status mirrors the outbox.status column.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one queued order or payment event. AggregateID is the order id or
// the payment reference and keys the Kafka message, so one aggregate's events
// stay on one partition.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
}

// SessionHeaders starts the header set for an event raised in a chat session.
func SessionHeaders(sessionID string) map[string]string {
	return map[string]string{headerSessionID: sessionID}
}

// SessionID is the chat session that raised the event, empty if unknown.
func (e Event) SessionID() string {
	return e.Headers[headerSessionID]
}
