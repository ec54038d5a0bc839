package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leadfinder/internal/model"
)

// RedisStore keeps the state document in Redis so several short-lived
// processes for the same identity share one quota
type RedisStore struct {
	client *redis.Client
	key    string
}

// RedisOptions configuration for the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Key prefix, default "leadfinder:"
	Identity string // Account identity, default "default"
}

// NewRedisStore creates a new Redis-backed state store
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "leadfinder:"
	}
	identity := opts.Identity
	if identity == "" {
		identity = "default"
	}

	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("%sratelimit:%s", prefix, identity),
	}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load reads the state document
func (s *RedisStore) Load(ctx context.Context) (*model.RateLimiterState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load rate limiter state from redis: %w", err)
	}

	var state model.RateLimiterState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode rate limiter state: %w", err)
	}
	return &state, nil
}

// Save writes the state document without expiry
func (s *RedisStore) Save(ctx context.Context, state *model.RateLimiterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode rate limiter state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save rate limiter state to redis: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
