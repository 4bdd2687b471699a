// Package cache provides a Redis-backed read-through cache for slot listings.
// Cached listings are advisory only: a suggested slot can go stale the moment
// another client books it, and booking-time re-validation is what protects
// the double-booking invariant, so a short TTL is all the freshness needed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMiss indicates the key was absent (or unreadable, which is treated the same).
var ErrMiss = errors.New("cache miss")

// SlotCache caches per-therapist slot listings keyed by (therapist, date, duration).
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotCache wraps an existing Redis client.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SlotCache{client: client, ttl: ttl}
}

// Connect creates and pings a Redis client.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func slotKey(therapistID primitive.ObjectID, date time.Time, duration time.Duration) string {
	return fmt.Sprintf("slots:%s:%s:%d", therapistID.Hex(), date.UTC().Format("2006-01-02"), int(duration.Minutes()))
}

func therapistKeyPattern(therapistID primitive.ObjectID) string {
	return fmt.Sprintf("slots:%s:*", therapistID.Hex())
}

// Get returns the cached listing for the key, or ErrMiss.
func (c *SlotCache) Get(ctx context.Context, therapistID primitive.ObjectID, date time.Time, duration time.Duration, dest any) error {
	raw, err := c.client.Get(ctx, slotKey(therapistID, date, duration)).Bytes()
	if err != nil {
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ErrMiss
	}
	return nil
}

// Set stores a listing with the configured TTL. Failures are returned but
// callers may ignore them; the cache is best-effort.
func (c *SlotCache) Set(ctx context.Context, therapistID primitive.ObjectID, date time.Time, duration time.Duration, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slotKey(therapistID, date, duration), raw, c.ttl).Err()
}

// Invalidate drops every cached listing for a therapist. Called after a
// committed booking, reschedule or cancellation, before the write returns, so
// subsequent reads observe the write.
func (c *SlotCache) Invalidate(ctx context.Context, therapistID primitive.ObjectID) error {
	iter := c.client.Scan(ctx, 0, therapistKeyPattern(therapistID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
