// Package cache provides the TTL cache behind session verification. Handlers
// depend on the interface so tests and deployments can swap the backing
// store; the in-memory implementation is the default for a single process.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a string key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	value    string
	expireAt time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on Get
// and swept whenever the map grows past its high-water mark.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]entry
	sweepSize int
	now       func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[string]entry),
		sweepSize: 1024,
		now:       time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if m.now().After(e.expireAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expireAt: m.now().Add(ttl)}
	if len(m.entries) > m.sweepSize {
		m.sweep()
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// sweep drops expired entries; callers hold the lock.
func (m *Memory) sweep() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expireAt) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) > m.sweepSize {
		m.sweepSize *= 2
	}
}
