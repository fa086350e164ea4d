/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Connection pooling
	PoolSize     int
	MinIdleConns int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

// RedisStore implements Store on Redis sorted sets. Values are members and
// epoch seconds are scores.
type RedisStore struct {
	client redis.UniversalClient
	logger zerolog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis store initialized")

	return NewRedisStoreWithClient(client, logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Add inserts value at score (ZADD).
func (s *RedisStore) Add(ctx context.Context, key string, score int64, value []byte) error {
	err := s.client.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: string(value)}).Err()
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("zadd failed")
		return &StoreError{Op: "add", Key: key, Err: err}
	}
	return nil
}

// RangeByScore returns entries with min <= score <= max (ZRANGEBYSCORE).
func (s *RedisStore) RangeByScore(ctx context.Context, key string, min, max int64) ([]Entry, error) {
	zs, err := s.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("zrangebyscore failed")
		return nil, &StoreError{Op: "range", Key: key, Err: err}
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, &StoreError{Op: "range", Key: key, Err: fmt.Errorf("unexpected member type %T", z.Member)}
		}
		entries = append(entries, Entry{Value: []byte(member), Score: int64(math.Round(z.Score))})
	}
	return entries, nil
}

// RangeAll returns every entry under key.
func (s *RedisStore) RangeAll(ctx context.Context, key string) ([]Entry, error) {
	return s.RangeByScore(ctx, key, MinScore, MaxScore)
}

// TrimByScore removes entries with min <= score <= max (ZREMRANGEBYSCORE).
func (s *RedisStore) TrimByScore(ctx context.Context, key string, min, max int64) error {
	removed, err := s.client.ZRemRangeByScore(ctx, key, formatScore(min), formatScore(max)).Result()
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("zremrangebyscore failed")
		return &StoreError{Op: "trim", Key: key, Err: err}
	}
	if removed > 0 {
		s.logger.Debug().Str("key", key).Int64("removed", removed).Msg("trimmed expired entries")
	}
	return nil
}

func formatScore(score int64) string {
	switch score {
	case MinScore:
		return "-inf"
	case MaxScore:
		return "+inf"
	default:
		return strconv.FormatInt(score, 10)
	}
}
