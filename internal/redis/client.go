package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is absent; callers fall back to the
// database.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Coupon metadata cache. Entries are short-lived and invalidated on admin
// edits; limit enforcement never relies on cached counters, only the
// transactional redeem does that.

func (c *Client) SetCoupon(ctx context.Context, code string, coupon interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to marshal coupon: %w", err)
	}
	return c.rdb.Set(ctx, "coupon:"+code, jsonData, ttl).Err()
}

func (c *Client) GetCoupon(ctx context.Context, code string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, "coupon:"+code).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get coupon from cache: %w", err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Client) InvalidateCoupon(ctx context.Context, code string) error {
	return c.rdb.Del(ctx, "coupon:"+code).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
