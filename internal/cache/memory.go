package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
	tags      []string
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is the process-local first level. Values are stored as
// encoded bytes so callers never share mutable state through it.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	tags    map[string]map[string]struct{}
	maxSize int
	now     func() time.Time
}

func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		tags:    make(map[string]map[string]struct{}),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *MemoryCache) Set(key string, data []byte, ttl time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictLocked(now)
	}

	m.removeLocked(key)

	entry := memoryEntry{data: data, tags: tags}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry

	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if current, ok := m.entries[key]; ok && current.expired(m.now()) {
			m.removeLocked(key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return entry.data, true
}

func (m *MemoryCache) Delete(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		m.removeLocked(key)
	}
}

// removeLocked drops key and its membership in every tag set, deleting tag
// sets that become empty.
func (m *MemoryCache) removeLocked(key string) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)

	for _, tag := range entry.tags {
		keys := m.tags[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.tags, tag)
		}
	}
}

func (m *MemoryCache) InvalidateTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.tags[tag] {
		m.removeLocked(key)
	}
	delete(m.tags, tag)
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"entries":  len(m.entries),
		"tags":     len(m.tags),
		"max_size": m.maxSize,
	}
}

// evictLocked drops expired entries, then the entry closest to expiry if
// the cache is still full.
func (m *MemoryCache) evictLocked(now time.Time) {
	var victim string
	var victimExpiry time.Time
	for key, entry := range m.entries {
		if entry.expired(now) {
			m.removeLocked(key)
			continue
		}
		if victim == "" || (!entry.expiresAt.IsZero() && (victimExpiry.IsZero() || entry.expiresAt.Before(victimExpiry))) {
			victim = key
			victimExpiry = entry.expiresAt
		}
	}

	if len(m.entries) >= m.maxSize && victim != "" {
		m.removeLocked(victim)
	}
}
