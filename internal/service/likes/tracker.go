// Package likes records which caller already liked which project.
package likes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "likes:"

// Key identifies one caller's like on one project.
func Key(caller, projectID string) string {
	return caller + "|" + projectID
}

// MemoryTracker keeps claims in process memory. Expired entries are dropped
// lazily and by a sweep every sweepEvery claims.
type MemoryTracker struct {
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time
	count  int
	mu     sync.Mutex
}

const sweepEvery = 1024

func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	return &MemoryTracker{
		ttl:    ttl,
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

// Claim records key and reports false when it is already held.
func (t *MemoryTracker) Claim(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.count++
	if t.count%sweepEvery == 0 {
		for k, exp := range t.claims {
			if !exp.After(now) {
				delete(t.claims, k)
			}
		}
	}

	if exp, ok := t.claims[key]; ok && exp.After(now) {
		return false, nil
	}
	t.claims[key] = now.Add(t.ttl)
	return true, nil
}

func (t *MemoryTracker) Release(_ context.Context, key string) error {
	t.mu.Lock()
	delete(t.claims, key)
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.claims)
}

// RedisTracker shares claims between instances with SET NX EX.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := t.client.SetNX(ctx, keyPrefix+key, 1, t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (t *RedisTracker) Release(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NewRedisClient connects and pings the configured server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
