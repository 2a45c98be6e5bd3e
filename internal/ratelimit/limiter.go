// Package ratelimit provides the fixed-window limiters used in front of the
// HTTP room and login endpoints, and the token bucket used per websocket
// connection.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimited is returned when a key exceeds its window.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

type Window struct {
	Limit  int
	Period time.Duration
}

func (w Window) normalize() Window {
	if w.Limit <= 0 {
		w.Limit = 30
	}
	if w.Period <= 0 {
		w.Period = time.Minute
	}
	return w
}

// Nop never limits.
type Nop struct{}

func (Nop) Allow(context.Context, string) error { return nil }
