package incident

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes the read-modify-write in the detector's open/resolve
// path across workers, since incident creation is not otherwise serialized
// (§5): two overlapping workers could otherwise open duplicate incidents
// for the same monitor.
type Locker interface {
	// WithLock runs fn while holding the per-monitor lock, and releases it
	// afterward regardless of fn's outcome.
	WithLock(ctx context.Context, monitorID uint, fn func() error) error
}

// RedisLocker implements the per-monitor advisory lock with a redis
// SET NX PX, the primary strategy chosen for this engine (see DESIGN.md).
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, ttl: 5 * time.Second}
}

func (l *RedisLocker) WithLock(ctx context.Context, monitorID uint, fn func() error) error {
	key := fmt.Sprintf("incident-lock:%d", monitorID)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire incident lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("incident lock for monitor %d held by another worker", monitorID)
	}
	defer func() {
		// best-effort release; a short TTL bounds staleness if this fails
		val, getErr := l.client.Get(context.Background(), key).Result()
		if getErr == nil && val == token {
			l.client.Del(context.Background(), key)
		}
	}()

	return fn()
}

// InProcessLocker is a sync.Mutex-per-monitor fallback used when redis is
// not configured — a last resort so the invariant still holds within a
// single process even without the redis dependency wired in.
type InProcessLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewInProcessLocker() *InProcessLocker {
	return &InProcessLocker{locks: make(map[uint]*sync.Mutex)}
}

func (l *InProcessLocker) WithLock(ctx context.Context, monitorID uint, fn func() error) error {
	l.mu.Lock()
	m, ok := l.locks[monitorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[monitorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn()
}
