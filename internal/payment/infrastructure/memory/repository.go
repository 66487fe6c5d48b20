package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
)

// Event is a payment event that would have gone to the outbox.
type Event struct {
	Type      string
	Reference string
	Payload   []byte
}

// Repository keeps the payment ledger in process for runs without Postgres.
type Repository struct {
	log *slog.Logger

	mu       sync.RWMutex
	payments map[string]domain.Payment
	events   []Event
}

func NewRepository(log *slog.Logger) *Repository {
	return &Repository{log: log, payments: make(map[string]domain.Payment)}
}

func (r *Repository) SaveWithOutbox(_ context.Context, p domain.Payment, eventType string, payload []byte, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.payments[p.Reference]; ok {
		prev.Status = p.Status
		prev.UpdatedAt = p.UpdatedAt
		p = prev
	}
	r.payments[p.Reference] = p
	r.events = append(r.events, Event{Type: eventType, Reference: p.Reference, Payload: payload})
	r.log.Debug("payment event", "type", eventType, "reference", p.Reference)
	return nil
}

func (r *Repository) Get(_ context.Context, reference string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[reference]
	if !ok {
		return domain.Payment{}, fmt.Errorf("payment %s: %w", reference, apperr.ErrNotFound)
	}
	return p, nil
}

func (r *Repository) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}
