// Package cache holds short-lived key/value stores: password reset tokens backed
// by Redis or process memory, and a generic TTL map used by the media prober.
package cache

import (
	"context"
	"sync"
	"time"
)

// TTLMap is a concurrency-safe map whose entries expire.
type TTLMap[V any] struct {
	mu    sync.Mutex
	items map[string]ttlEntry[V]
	now   func() time.Time
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTLMap returns an empty map.
func NewTTLMap[V any]() *TTLMap[V] {
	return &TTLMap[V]{items: make(map[string]ttlEntry[V]), now: time.Now}
}

// Get returns a live entry.
func (m *TTLMap[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.items[key]
	if !ok || !m.now().Before(entry.expires) {
		delete(m.items, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value for ttl and drops expired entries.
func (m *TTLMap[V]) Set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, entry := range m.items {
		if !now.Before(entry.expires) {
			delete(m.items, k)
		}
	}
	m.items[key] = ttlEntry[V]{value: value, expires: now.Add(ttl)}
}

// Take returns a live entry and removes it.
func (m *TTLMap[V]) Take(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.items[key]
	delete(m.items, key)
	if !ok || !m.now().Before(entry.expires) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Len counts stored entries, expired ones included.
func (m *TTLMap[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// MemoryResetStore keeps reset tokens in process memory. Tokens do not survive
// restarts or span replicas; use RedisResetStore for that.
type MemoryResetStore struct {
	items *TTLMap[string]
}

func NewMemoryResetStore() *MemoryResetStore {
	return &MemoryResetStore{items: NewTTLMap[string]()}
}

func (s *MemoryResetStore) Put(_ context.Context, key, userID string, ttl time.Duration) error {
	s.items.Set(key, userID, ttl)
	return nil
}

func (s *MemoryResetStore) Take(_ context.Context, key string) (string, bool, error) {
	userID, ok := s.items.Take(key)
	return userID, ok, nil
}
