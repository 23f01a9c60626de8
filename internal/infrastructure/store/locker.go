package store

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockKeyPrefix = "hostess:lock:"

// MemoryLocker serializes turns per identity key with in-process mutexes.
// Pairs with MemoryStore: both only make sense on a single instance.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryLocker creates an in-process per-key locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. Key mutexes
// are never reclaimed; the key space is bounded by active identities.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// RedisLocker serializes turns across instances with redsync mutexes.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	log    zerolog.Logger
}

// NewRedisLocker creates a distributed per-key locker over the given
// client. expiry bounds how long a crashed holder can block an identity.
func NewRedisLocker(client redis.UniversalClient, expiry time.Duration, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		log:    log.With().Str("component", "turn-locker").Logger(),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(lockKeyPrefix+key, redsync.WithExpiry(l.expiry))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return func() {
		if _, err := mutex.Unlock(); err != nil {
			l.log.Error().Err(err).Str("key", key).Msg("failed to release turn lock")
		}
	}, nil
}
