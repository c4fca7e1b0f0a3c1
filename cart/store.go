package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts per user. Load returns an empty cart when none is saved.
type Store interface {
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, userID string, c *Cart) error
	Delete(ctx context.Context, userID string) error
}

// RedisStore keeps each cart as a JSON string under cart:<userID>. Every save refreshes
// the TTL, so abandoned carts expire on their own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(userID string) string {
	return "cart:" + userID
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*Cart, error) {
	data, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	c, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, c *Cart) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.rdb.Set(ctx, key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
