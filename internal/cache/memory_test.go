package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGet(t *testing.T) {
	m := NewMemoryCache(10)
	m.Set("a", []byte(`"one"`), time.Minute)

	data, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, `"one"`, string(data))

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	m := NewMemoryCache(10)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set("a", []byte("1"), time.Second)
	now = now.Add(2 * time.Second)

	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCache_InvalidateTag(t *testing.T) {
	m := NewMemoryCache(10)
	m.Set("dashboard#summary", []byte("1"), time.Minute, "dashboard")
	m.Set("dashboard#recent:5", []byte("2"), time.Minute, "dashboard")
	m.Set("team#all", []byte("3"), time.Minute, "team")

	m.InvalidateTag("dashboard")

	_, ok := m.Get("dashboard#summary")
	assert.False(t, ok)
	_, ok = m.Get("dashboard#recent:5")
	assert.False(t, ok)
	_, ok = m.Get("team#all")
	assert.True(t, ok)
}

func TestMemoryCache_RemovingEntriesPrunesTags(t *testing.T) {
	m := NewMemoryCache(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set("project:1#detail", []byte("1"), time.Second, "project:1")
	m.Set("project:2#detail", []byte("2"), time.Minute, "project:2")
	m.Set("project:3#detail", []byte("3"), time.Minute, "project:3")
	assert.Equal(t, 2, m.Stats()["tags"], "evicted entry leaves no tag behind")

	now = now.Add(2 * time.Minute)
	_, ok := m.Get("project:2#detail")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Stats()["tags"], "expired entry leaves no tag behind")

	m.Delete("project:3#detail")
	assert.Equal(t, 0, m.Stats()["tags"])
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCache_RetaggingReplacesMembership(t *testing.T) {
	m := NewMemoryCache(10)
	m.Set("dashboard#summary", []byte("1"), time.Minute, "dashboard")
	m.Set("dashboard#summary", []byte("2"), time.Minute, "projects")

	m.InvalidateTag("dashboard")

	data, ok := m.Get("dashboard#summary")
	assert.True(t, ok)
	assert.Equal(t, "2", string(data))
	assert.Equal(t, 1, m.Stats()["tags"])
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	m := NewMemoryCache(2)
	m.Set("a", []byte("1"), time.Second)
	m.Set("b", []byte("2"), time.Minute)
	m.Set("c", []byte("3"), time.Minute)

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("a")
	assert.False(t, ok, "entry closest to expiry is evicted first")
	_, ok = m.Get("c")
	assert.True(t, ok)
}
