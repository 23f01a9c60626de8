package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/conversation"
)

const sessionKeyPrefix = "hostess:session:"

// RedisStore persists conversation state as JSON in Redis with a TTL.
// Staleness is handled by Redis expiry, so there is no sweep to run.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStore connects to Redis and returns the store. ttl bounds how
// long an idle conversation survives; every Upsert refreshes it.
func NewRedisStore(redisURL string, ttl time.Duration, log zerolog.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "conversation-store").Logger(),
	}, nil
}

// Client exposes the underlying connection for the lock layer.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStore) Get(ctx context.Context, key string) (*conversation.State, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, conversation.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}

	var state conversation.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %q: %w", key, err)
	}
	if state.Collected == nil {
		state.Collected = make(map[conversation.Field]string)
	}
	if state.RetryCount == nil {
		state.RetryCount = make(map[conversation.Field]int)
	}
	return &state, nil
}

func (s *RedisStore) Upsert(ctx context.Context, key string, state *conversation.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %q: %w", key, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close releases the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
