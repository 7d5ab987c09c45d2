package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("run lock not acquired")

// RunLocker serializes collection sweeps cluster-wide: at most one roster
// event per designated body may be processed at a time across all instances.
type RunLocker interface {
	WithRunLock(ctx context.Context, designatedBodyCode string, fn func(ctx context.Context) error) error
}

type redisRunLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLocker creates a locker backed by a per-body Redis key.
func NewRunLocker(client *Client, ttl time.Duration) RunLocker {
	return &redisRunLocker{
		client: client.Client,
		ttl:    ttl,
	}
}

func (l *redisRunLocker) WithRunLock(ctx context.Context, designatedBodyCode string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:collection:%s", designatedBodyCode)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// unlockScript releases the lock only if this instance still owns it, so an
// expired-and-reacquired lock is never released from under another holder.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisRunLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

// LocalRunLocker is a process-local fallback used when Redis is not
// configured. It provides the same serialization within one instance only.
type LocalRunLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalRunLocker() *LocalRunLocker {
	return &LocalRunLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalRunLocker) WithRunLock(ctx context.Context, designatedBodyCode string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[designatedBodyCode]
	if !ok {
		m = &sync.Mutex{}
		l.locks[designatedBodyCode] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
