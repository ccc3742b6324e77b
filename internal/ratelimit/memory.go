package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window limiter held in process memory. Windows are
// aligned to wall-clock boundaries so two requests in the same window
// share a counter regardless of when the first one arrived.
type Memory struct {
	limit  int64
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*memoryWindow
}

type memoryWindow struct {
	start time.Time
	count int64
}

// NewMemory creates a Memory limiter admitting at most limit requests
// per key per window.
func NewMemory(limit int64, window time.Duration) *Memory {
	return &Memory{
		limit:    limit,
		window:   window,
		now:      time.Now,
		counters: make(map[string]*memoryWindow),
	}
}

// Allow reports whether the key is within its budget for the current
// window. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()
	start := now.Truncate(m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.counters[key]
	if !ok || w.start.Before(start) {
		w = &memoryWindow{start: start}
		m.counters[key] = w
		m.evictStale(start)
	}
	w.count++
	return w.count <= m.limit, nil
}

// evictStale drops counters from past windows. Called with mu held,
// piggybacked on window rollover so no background goroutine is needed.
func (m *Memory) evictStale(start time.Time) {
	for k, w := range m.counters {
		if w.start.Before(start) {
			delete(m.counters, k)
		}
	}
}
