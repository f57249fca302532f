// Package ratelimit provides a token-bucket gate, backed by
// golang.org/x/time/rate, for throttling round trips to the backing store.
// Managed table services meter throughput per table; wrapping the store
// keeps a hot cache from burning through the table's provisioned capacity.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that paces store round trips.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps operations per second with
// the given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a single operation may proceed immediately.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait blocks until an operation may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
