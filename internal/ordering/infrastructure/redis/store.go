package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

const keyPrefix = "session:"

// SessionStore keeps each session record as a JSON blob with a TTL.
type SessionStore struct {
	log *slog.Logger
	rdb redis.UniversalClient
}

func NewSessionStore(log *slog.Logger, rdb redis.UniversalClient) *SessionStore {
	return &SessionStore{log: log, rdb: rdb}
}

func (s *SessionStore) Key(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.SessionState, bool, error) {
	raw, err := s.rdb.Get(ctx, s.Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, err
	}

	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.log.Error("corrupt session record", "session_id", sessionID, "err", err)
		return domain.SessionState{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, true, nil
}

func (s *SessionStore) Put(ctx context.Context, sessionID string, state domain.SessionState, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.Key(sessionID), raw, ttl).Err()
}
