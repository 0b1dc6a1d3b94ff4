package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	counter   int64
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used by tests and local runs without Redis.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	Published map[string][][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:   make(map[string]*memoryEntry),
		now:       time.Now,
		Published: make(map[string][][]byte),
	}
}

// SetClock replaces the time source used for expiry.
func (m *MemoryCache) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryCache) live(key string) *memoryEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *MemoryCache) expiry(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return m.now().Add(d)
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &memoryEntry{data: data, expiresAt: m.expiry(expiration)}
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	e := m.live(key)
	m.mu.Unlock()
	if e == nil || e.data == nil {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryCache) IncrementWithExpiry(_ context.Context, key string, expiration time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &memoryEntry{expiresAt: m.expiry(expiration)}
		m.entries[key] = e
	}
	e.counter++
	return e.counter, nil
}

func (m *MemoryCache) Publish(_ context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[channel] = append(m.Published[channel], data)
	return nil
}
