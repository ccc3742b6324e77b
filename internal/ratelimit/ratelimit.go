// Package ratelimit provides fixed-window request limiting. Two drivers
// exist: an in-process memory limiter for single-instance deployments and
// a store-backed limiter that shares counters across replicas.
package ratelimit

import "context"

// Limiter decides whether a request identified by key may proceed within
// the current window. Implementations must fail open: transient backend
// errors return (true, err) so the caller can log without dropping traffic.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Unlimited is a Limiter that admits everything.
type Unlimited struct{}

// Allow always admits.
func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
