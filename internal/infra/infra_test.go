package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache[int](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Invalidate("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC)
	c := NewCache[string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("crumb", "x")
	now = now.Add(30 * time.Second)
	v, ok := c.Get("crumb")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("crumb")
	assert.False(t, ok, "entry should have expired")

	// Set after expiry starts a fresh TTL.
	c.Set("crumb", "y")
	v, ok = c.Get("crumb")
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestNewLimiter(t *testing.T) {
	unlimited := NewLimiter(0, 0)
	assert.Equal(t, rate.Inf, unlimited.Limit())
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow())
	}

	l := NewLimiter(5, 0)
	assert.Equal(t, rate.Limit(5), l.Limit())
	assert.Equal(t, 1, l.Burst())
	require.NoError(t, l.Wait(context.Background()))
	assert.False(t, l.Allow(), "burst of one is spent")
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
