// Package lock serializes writers on a named key across service replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNotAcquired is returned when the wait budget runs out before the key is free.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires a key-scoped mutual exclusion. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// NoopLocker grants every lock immediately. Used when no redis is configured;
// the database upsert still guarantees a single line per key.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// release deletes the key only when it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	wait      time.Duration
	poll      time.Duration
}

func NewRedisLocker(client *redis.Client, namespace string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		wait:      wait,
		poll:      25 * time.Millisecond,
	}
}

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.namespace + ":" + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, fullKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			return func() {
				// Detached from ctx so a cancelled request still releases.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				release.Run(releaseCtx, l.client, []string{fullKey}, token)
			}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire %s: %w", fullKey, ErrNotAcquired)
		case <-ticker.C:
		}
	}
}
