package application

import (
	"context"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

// SessionStore is a keyed, TTL-bounded store of one session record per client.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (domain.SessionState, bool, error)
	Put(ctx context.Context, sessionID string, state domain.SessionState, ttl time.Duration) error
}

// SessionLocker serializes updates to one session across service instances.
// The returned func releases the lock.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}

type EventRecorder interface {
	Record(ctx context.Context, events []domain.OrderEvent) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, []domain.OrderEvent) error { return nil }
