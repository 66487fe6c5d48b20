package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "session-lock:"

// releaseScript deletes the lock only while it still carries the holder's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var ErrLockTimeout = errors.New("session lock wait exceeded")

// SessionLocker is a SET NX PX lock per session. The lease expires on its own
// if the holder dies, so it must outlive one chat turn.
type SessionLocker struct {
	log   *slog.Logger
	rdb   redis.UniversalClient
	lease time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewSessionLocker(log *slog.Logger, rdb redis.UniversalClient, lease, wait time.Duration) *SessionLocker {
	return &SessionLocker{log: log, rdb: rdb, lease: lease, wait: wait, retry: 20 * time.Millisecond}
}

func (l *SessionLocker) Key(sessionID string) string {
	return lockPrefix + sessionID
}

func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.Key(sessionID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.lease).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, sessionID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// Released on a fresh context so a cancelled request still frees the lock.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Error("session lock release failed", "session_id", sessionID, "err", err)
		}
	}, nil
}
