// Package cache provides the Redis-backed cache and counter layer.
// Counter mutations use Redis INCR/DECR so they stay atomic across
// interleaved gateway events; never read-modify-write a counter in process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/PancyStudios/SuggesterGo/pkg/logger"
)

// ErrCacheMiss is returned when a key does not exist in the cache
var ErrCacheMiss = errors.New("cache: key not found")

// Options contains connection options for the cache client
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a Redis connection with the narrow contract the bot depends on:
// Get/Set/Del plus atomic Incr/Decr for denormalized counters.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a cache client and verifies the connection
func NewClient(opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping failed: %w", err)
	}

	logger.Success("Connected to Redis", "Cache")
	return &Client{rdb: rdb}, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get retrieves a string value
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return val, err
}

// Set stores a string value without expiry
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// Del removes one or more keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Incr atomically increments a counter and returns the new value
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// Decr atomically decrements a counter and returns the new value
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Decr(ctx, key).Result()
}

// GetInt64 reads a counter value, returning 0 on a miss
func (c *Client) GetInt64(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// GetJSON reads a key and unmarshals it into out
func (c *Client) GetJSON(ctx context.Context, key string, out interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, out)
}

// SetJSON marshals value and stores it under key
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, 0).Err()
}
