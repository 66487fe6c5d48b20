package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

const DefaultSessionTTL = 24 * time.Hour

var ErrSessionNotFound = fmt.Errorf("session %w", apperr.ErrNotFound)

type Reply struct {
	SessionID    string
	Text         string
	Options      string
	CurrentOrder domain.Order
	Action       Action
	PayOrder     *domain.Order
	// Outcome is the apperr kind of a locally recovered result, empty on success.
	Outcome string
}

type Service struct {
	log     *slog.Logger
	machine *Machine
	store   SessionStore
	events  EventRecorder
	locks   *keyedLocker
	shared  SessionLocker
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.events = r
		}
	}
}

// WithSessionLocker adds a lock shared between instances on top of the in-process one.
func WithSessionLocker(l SessionLocker) Option {
	return func(s *Service) { s.shared = l }
}

func WithServiceClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(log *slog.Logger, machine *Machine, store SessionStore, opts ...Option) *Service {
	s := &Service{
		log:     log,
		machine: machine,
		store:   store,
		events:  nopRecorder{},
		locks:   newKeyedLocker(),
		ttl:     DefaultSessionTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Formatter() Formatter { return s.machine.Formatter() }

// Submit runs one chat command for the session, creating the session on first contact.
func (s *Service) Submit(ctx context.Context, sessionID, raw string) (Reply, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	state, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		unlock()
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		state = s.machine.NewState()
	}

	tr := s.machine.Process(state, raw)
	if errors.Is(tr.Err, apperr.ErrInternal) {
		s.log.Error("command processing fault", "session_id", sessionID, "err", tr.Err)
	}

	if tr.Changed || !found {
		if err := s.store.Put(ctx, sessionID, tr.State, s.ttl); err != nil {
			unlock()
			return Reply{}, fmt.Errorf("save session: %w", err)
		}
	}
	unlock()

	s.record(ctx, sessionID, tr.Events)

	return Reply{
		SessionID:    sessionID,
		Text:         tr.Response.Text,
		Options:      tr.Response.Options,
		CurrentOrder: tr.State.CurrentOrder,
		Action:       tr.Response.Action,
		PayOrder:     tr.Response.PayOrder,
		Outcome:      apperr.Kind(tr.Err),
	}, nil
}

// History returns the session's order history, empty for an unknown session.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Order, error) {
	state, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return []domain.Order{}, nil
	}
	return state.Orders, nil
}

// Lookup returns one history order of the session.
func (s *Service) Lookup(ctx context.Context, sessionID, orderID string) (domain.Order, error) {
	state, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return domain.Order{}, ErrSessionNotFound
	}
	i := state.FindOrder(orderID)
	if i < 0 {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	return state.Orders[i], nil
}

// ConfirmPayment marks a history order paid. Replaying it is a no-op and
// reports changed=false.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID, orderID string, paidAt time.Time) (domain.Order, bool, error) {
	order, changed, err := s.update(ctx, sessionID, orderID, func(o domain.Order) (domain.Order, bool, error) {
		paid, changed := o.MarkPaid(paidAt)
		return paid, changed, nil
	})
	if err != nil {
		return domain.Order{}, false, err
	}
	if changed {
		s.record(ctx, sessionID, []domain.OrderEvent{{Type: domain.EventOrderPaid, Order: order, At: paidAt.UTC()}})
	}
	return order, changed, nil
}

// Schedule sets a future delivery time on a history order.
func (s *Service) Schedule(ctx context.Context, sessionID, orderID string, at time.Time) (domain.Order, error) {
	if at.IsZero() {
		return domain.Order{}, fmt.Errorf("%w: schedule time is required", apperr.ErrInvalidInput)
	}
	now := s.now()
	if !at.After(now) {
		return domain.Order{}, fmt.Errorf("%w: schedule time must be in the future", apperr.ErrPreconditionFailed)
	}

	order, _, err := s.update(ctx, sessionID, orderID, func(o domain.Order) (domain.Order, bool, error) {
		return o.Schedule(at), true, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.record(ctx, sessionID, []domain.OrderEvent{{Type: domain.EventOrderScheduled, Order: order, At: now}})
	return order, nil
}

func (s *Service) lock(ctx context.Context, sessionID string) (func(), error) {
	unlock := s.locks.Lock(sessionID)
	if s.shared == nil {
		return unlock, nil
	}
	release, err := s.shared.Lock(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return func() {
		release()
		unlock()
	}, nil
}

func (s *Service) update(ctx context.Context, sessionID, orderID string, fn func(domain.Order) (domain.Order, bool, error)) (domain.Order, bool, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return domain.Order{}, false, err
	}
	defer unlock()

	state, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return domain.Order{}, false, ErrSessionNotFound
	}
	i := state.FindOrder(orderID)
	if i < 0 {
		return domain.Order{}, false, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}

	updated, changed, err := fn(state.Orders[i])
	if err != nil || !changed {
		return updated, false, err
	}

	next := state.Clone()
	next.Orders[i] = updated
	if err := s.store.Put(ctx, sessionID, next, s.ttl); err != nil {
		return domain.Order{}, false, fmt.Errorf("save session: %w", err)
	}
	return updated, true, nil
}

func (s *Service) record(ctx context.Context, sessionID string, events []domain.OrderEvent) {
	if len(events) == 0 {
		return
	}
	for i := range events {
		events[i].SessionID = sessionID
	}
	if err := s.events.Record(ctx, events); err != nil {
		s.log.Error("record order events failed", "session_id", sessionID, "err", err)
	}
}
