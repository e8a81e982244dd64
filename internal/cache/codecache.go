// Package cache provides a Redis-backed cache of each room's current
// document text, used as a fast path for resync and room fetches. The
// store remains authoritative; cache failures degrade to a store read and
// never abort an edit.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coedit/server/internal/domain"
)

const defaultTTL = 24 * time.Hour

type CodeCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(redisURL string) (*CodeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient creates a cache from an existing Redis client.
func NewWithClient(client *redis.Client) *CodeCache {
	return &CodeCache{client: client, prefix: "code:", ttl: defaultTTL}
}

func (c *CodeCache) key(roomID domain.RoomID) string {
	return c.prefix + string(roomID)
}

// Put records the room's current text after a completed edit.
func (c *CodeCache) Put(ctx context.Context, roomID domain.RoomID, code string) error {
	if err := c.client.Set(ctx, c.key(roomID), code, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache code: %w", err)
	}
	return nil
}

// Get returns the cached text and whether it was present.
func (c *CodeCache) Get(ctx context.Context, roomID domain.RoomID) (string, bool, error) {
	code, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached code: %w", err)
	}
	return code, true, nil
}

// Invalidate drops the cached text, e.g. when the room is deleted.
func (c *CodeCache) Invalidate(ctx context.Context, roomID domain.RoomID) error {
	if err := c.client.Del(ctx, c.key(roomID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached code: %w", err)
	}
	return nil
}

func (c *CodeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CodeCache) Close() error {
	return c.client.Close()
}
