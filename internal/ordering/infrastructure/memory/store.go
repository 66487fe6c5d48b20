package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

// SessionStore keeps session records in process memory with per-record expiry.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	state     domain.SessionState
	expiresAt time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the expiry clock.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return domain.SessionState{}, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return domain.SessionState{}, false, nil
	}
	return e.state.Clone(), true, nil
}

func (s *SessionStore) Put(_ context.Context, sessionID string, state domain.SessionState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = entry{state: state.Clone(), expiresAt: s.now().Add(ttl)}
	return nil
}

// Sweep drops expired records and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Sweep()
		}
	}
}
