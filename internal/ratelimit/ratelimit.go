package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EndpointLimiter enforces a minimum delay between requests to the same
// Upwork endpoint (search, best-matches, most-recent). Scan cycles hit the
// same pages for many users, so the limiter is shared process-wide.
type EndpointLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: endpoint name
	minDelay time.Duration
}

// NewEndpointLimiter creates a limiter that enforces minDelay between
// consecutive requests to the same endpoint.
func NewEndpointLimiter(minDelay time.Duration) *EndpointLimiter {
	return &EndpointLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given endpoint. Returns an error if the context is cancelled while waiting.
func (r *EndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	last, ok := r.lastCall[endpoint]
	now := time.Now()

	if !ok {
		// First request for this endpoint — no wait needed.
		r.lastCall[endpoint] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		// Enough time has passed — proceed immediately.
		r.lastCall[endpoint] = now
		r.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", endpoint, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[endpoint] = time.Now()
	r.mu.Unlock()

	return nil
}
