package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"decihire/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrLockBusy is returned when another writer kept the session past the wait budget
var ErrLockBusy = errors.New("session is locked by another writer")

// SessionLock serializes writers of a single session across processes
type SessionLock interface {
	// Lock blocks until the session is held or ctx/wait runs out.
	// The returned unlock is safe to call once the lock has expired.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// Delete only if we still own the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// releaseFailed logs a release that did not reach Redis; the key then lives until its ttl
func releaseFailed(key string, err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	log.WithField("key", key).Warnf("[Lock] release failed, held until ttl: %v", err)
	return true
}

type sessionLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewSessionLock creates a Redis lock; ttl bounds how long a crashed holder blocks others
func NewSessionLock(client *redis.Client, ttl time.Duration) SessionLock {
	return &sessionLock{
		client: client,
		ttl:    ttl,
		wait:   ttl,
		poll:   25 * time.Millisecond,
	}
}

func (l *sessionLock) key(sessionID string) string {
	return fmt.Sprintf("session:%s:lock", sessionID)
}

func (l *sessionLock) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.key(sessionID)
	token := uuid.New().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, cacheErr("lock session", err)
		}
		if ok {
			return func() {
				// Fresh context: the request ctx may already be cancelled
				relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				releaseFailed(key, releaseScript.Run(relCtx, l.client, []string{key}, token).Err())
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, &model.StoreUnavailableError{Op: "lock session", Err: ErrLockBusy}
		}

		select {
		case <-ctx.Done():
			return nil, cacheErr("lock session", ctx.Err())
		case <-time.After(l.poll):
		}
	}
}
