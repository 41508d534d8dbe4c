// Package cache provides the redis-backed ephemeral key/value store and the
// room-activity leaderboard consumed by the realtime gateway and the REST
// surface. A nil *Cache is the disabled state; callers guard for it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// leaderboardKey is the sorted set ranking rooms by chat message count.
const leaderboardKey = "chat:rooms:activity"

// keyPrefix namespaces ephemeral values.
const keyPrefix = "wiki:cache:"

// RoomActivity is one leaderboard entry.
type RoomActivity struct {
	Room     string `json:"room"`
	Messages int64  `json:"messages"`
}

// Cache wraps a redis client with the application's two uses of it:
// short-lived values and the room leaderboard.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redis at addr. Values written with Set expire after ttl.
func New(addr string, ttl time.Duration) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Set stores an ephemeral value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// Get reads an ephemeral value. The second return is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %q: %w", key, err)
	}
	return value, true, nil
}

// Touch increments the room's message count in the activity leaderboard.
// Implements realtime.ActivityRecorder.
func (c *Cache) Touch(ctx context.Context, room string) error {
	if err := c.client.ZIncrBy(ctx, leaderboardKey, 1, room).Err(); err != nil {
		return fmt.Errorf("incrementing room %q activity: %w", room, err)
	}
	return nil
}

// Top returns the n most active rooms, highest first.
func (c *Cache) Top(ctx context.Context, n int64) ([]RoomActivity, error) {
	entries, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	activity := make([]RoomActivity, 0, len(entries))
	for _, entry := range entries {
		room, ok := entry.Member.(string)
		if !ok {
			continue
		}
		activity = append(activity, RoomActivity{
			Room:     room,
			Messages: int64(entry.Score),
		})
	}
	return activity, nil
}
