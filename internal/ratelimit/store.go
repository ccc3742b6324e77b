package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/citydesk/planqa/internal/db"
)

const storeKeyPrefix = "planqa:ratelimit:"

// Store is a fixed-window limiter backed by a shared key-value store, so
// the budget holds across replicas. Counters are INCR'd per request and
// expired once per window via EXPIRE NX.
type Store struct {
	kv     db.KVStore
	limit  int64
	window time.Duration
}

// NewStore creates a Store limiter admitting at most limit requests per
// key per window.
func NewStore(kv db.KVStore, limit int64, window time.Duration) *Store {
	return &Store{kv: kv, limit: limit, window: window}
}

// Allow reports whether the key is within its budget for the current
// window. Store failures admit the request and surface the error to the
// caller for logging.
func (s *Store) Allow(ctx context.Context, key string) (bool, error) {
	storeKey := storeKeyPrefix + key

	n, err := s.kv.IncrBy(ctx, storeKey, 1)
	if err != nil {
		return true, fmt.Errorf("increment rate counter: %w", err)
	}

	// NX keeps the TTL set by the first request of the window, so the
	// window expires relative to its opening rather than sliding.
	if err := s.kv.Expire(ctx, storeKey, s.window, true); err != nil {
		return n <= s.limit, fmt.Errorf("set rate counter expiry: %w", err)
	}

	return n <= s.limit, nil
}
