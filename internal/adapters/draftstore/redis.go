package draftstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/ports"
)

// redisStore persists draft keys in Redis. Each session gets its own
// key prefix so drafts for different users never collide.
type redisStore struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

var _ ports.DraftStore = (*redisStore)(nil) // Ensure compliance

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, db int, prefix string, baseLogger *zerolog.Logger) (ports.DraftStore, error) {
	log := baseLogger.With().Str("component", "redis_draft_store").Logger()

	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Failed to ping Redis")
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info().Str("addr", addr).Msg("Redis draft store connected")
	return &redisStore{client: client, prefix: prefix, log: log}, nil
}

func (s *redisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *redisStore) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
