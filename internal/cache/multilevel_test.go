package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestMultiLevel(t *testing.T) (*MultiLevelCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	l2 := NewRedisCache(&CacheConfig{
		Addr:         mr.Addr(),
		MaxRetries:   -1,
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { l2.Close() })
	return NewMultiLevelCache(l2), mr
}

func TestMultiLevelCache_L1OnlyWithoutRedis(t *testing.T) {
	c := NewMultiLevelCache(nil)
	ctx := context.Background()

	key := ViewKey(ViewProjects, "all")
	require.NoError(t, c.Set(ctx, key, cachedView{Name: "p", Count: 2}, time.Minute))

	var got cachedView
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, cachedView{Name: "p", Count: 2}, got)

	c.Invalidate(ctx, ViewProjects)
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrCacheMiss)
	assert.NoError(t, c.Health())
}

func TestMultiLevelCache_ReadsThroughToRedis(t *testing.T) {
	c, mr := newTestMultiLevel(t)
	ctx := context.Background()

	key := ViewKey(ProjectView("p1"), "detail")
	require.NoError(t, c.Set(ctx, key, cachedView{Name: "p1"}, time.Minute))
	assert.True(t, mr.Exists(key))

	c.l1.Delete(key)

	var got cachedView
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, "p1", got.Name)

	_, inL1 := c.l1.Get(key)
	assert.True(t, inL1, "L2 hit repopulates L1")
}

func TestMultiLevelCache_InvalidateClearsBothLevels(t *testing.T) {
	c, mr := newTestMultiLevel(t)
	ctx := context.Background()

	dashboard := ViewKey(ViewDashboard, "summary")
	team := ViewKey(ViewTeam, "all")
	require.NoError(t, c.Set(ctx, dashboard, cachedView{Count: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, team, cachedView{Count: 2}, time.Minute))

	c.Invalidate(ctx, ViewDashboard)

	var got cachedView
	assert.ErrorIs(t, c.Get(ctx, dashboard, &got), ErrCacheMiss)
	assert.False(t, mr.Exists(dashboard))
	assert.NoError(t, c.Get(ctx, team, &got))
	assert.Equal(t, 2, got.Count)

	stats := c.Metrics().GetStats()
	assert.Equal(t, int64(1), stats.Invalidations)
}

func TestMultiLevelCache_DegradesWhenRedisDown(t *testing.T) {
	c, mr := newTestMultiLevel(t)
	ctx := context.Background()

	key := ViewKey(ViewTeam, "all")
	require.NoError(t, c.Set(ctx, key, cachedView{Name: "team"}, time.Minute))
	mr.Close()

	var got cachedView
	require.NoError(t, c.Get(ctx, key, &got), "L1 still answers")

	err := c.Get(ctx, ViewKey(ViewTeam, "other"), &got)
	assert.True(t, errors.Is(err, ErrCacheDown))

	for i := 0; i < 5; i++ {
		c.Set(ctx, ViewKey(ViewProjects, "x"), cachedView{}, time.Minute)
	}
	assert.Equal(t, CircuitBreakerOpen, c.breaker.GetState())

	c.Invalidate(ctx, ViewTeam)
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrCacheDown)
	_, inL1 := c.l1.Get(key)
	assert.False(t, inL1)
}

func TestViewKey(t *testing.T) {
	key := ViewKey(ProjectView("abc"), "detail")
	assert.Equal(t, "project:abc#detail", key)
	assert.Equal(t, "project:abc", viewOf(key))
	assert.Equal(t, "settings:u1", SettingsView("u1"))
}

func TestMultiLevelCache_L1TTLCapsLocalCopies(t *testing.T) {
	c := NewMultiLevelCache(nil).WithL1TTL(time.Second)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.l1.now = func() time.Time { return now }
	ctx := context.Background()

	key := ViewKey(ViewDashboard, "summary")
	require.NoError(t, c.Set(ctx, key, cachedView{Count: 3}, time.Minute))

	now = now.Add(2 * time.Second)
	var got cachedView
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrCacheMiss)

	assert.Equal(t, time.Second, NewMultiLevelCache(nil).WithL1TTL(time.Second).l1TTL)
	assert.Equal(t, defaultL1TTL, NewMultiLevelCache(nil).WithL1TTL(0).l1TTL)
}

func TestMultiLevelCache_Stats(t *testing.T) {
	c, _ := newTestMultiLevel(t)
	require.NoError(t, c.Set(context.Background(), ViewKey(ViewTeam, "all"), cachedView{}, time.Minute))

	stats := c.Stats()
	assert.Contains(t, stats, "l1")
	assert.Contains(t, stats, "l2")
	assert.Contains(t, stats, "breaker")
	assert.Equal(t, int64(1), stats["metrics"].(CacheMetrics).Sets)
}
