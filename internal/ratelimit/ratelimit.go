package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter is a fixed-window counter store shared across processes.
// Each (actor, action) pair gets one redis counter per window; the
// counter expires with the window, so limits survive process restarts
// and apply across replicas.
type Limiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewLimiter(client *redis.Client, windowSeconds, maxRequests int) *Limiter {
	return &Limiter{
		client: client,
		window: time.Duration(windowSeconds) * time.Second,
		max:    maxRequests,
	}
}

// Allow increments the counter for the actor/action in the current
// window and reports whether the request is within budget.
func (l *Limiter) Allow(ctx context.Context, actorID, action string) (bool, error) {
	window := time.Now().Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%s:%d", actorID, action, window)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First hit in this window; bound the key's lifetime.
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.max), nil
}
