// Package cache provides non-relational session stores: a Redis-backed one
// for multi-instance deployments and an in-process one for development and
// tests.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/redis/go-redis/v9"
)

// SessionKeyPrefix namespaces session keys in a shared Redis.
const SessionKeyPrefix = "inventory:sess:"

// Connect initializes a Redis client from a redis:// URL or a host:port
// address and checks it with a PING.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisSessionStore keeps session payloads as plain string values with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Set(ctx context.Context, sid string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, SessionKeyPrefix+sid, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sid string) ([]byte, error) {
	b, err := s.client.Get(ctx, SessionKeyPrefix+sid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

func (s *RedisSessionStore) Del(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, SessionKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
