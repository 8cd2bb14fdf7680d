// Package cache is the best-effort key-value façade in front of catalog
// reads. Callers treat every failure as a miss: errors are logged at the
// call site and never fail the surrounding request.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache miss")

type Cache interface {
	// Get returns the cached value or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
