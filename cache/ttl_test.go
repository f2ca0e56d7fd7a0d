package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/store"
)

func TestTTL_SetAndGet(t *testing.T) {
	c := New(&fakeProvider{}, func(o *Options) { o.Store = store.NewInMemory() })
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set("npc_memory", "met-player", map[string]any{"mood": "curious"}, time.Minute))

	data, err := c.Get("npc_memory", "met-player")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mood":"curious"}`, string(data))

	// Absent keys are nil, nil.
	data, err = c.Get("npc_memory", "never-set")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestTTL_ExpiryIsLazy(t *testing.T) {
	c := New(&fakeProvider{}, func(o *Options) { o.Store = store.NewInMemory() })
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set("npc_memory", "short-lived", "x", time.Minute))
	require.NoError(t, c.Set("npc_memory", "durable", "y", 0))

	// Past the deadline the entry reads as gone before any sweep runs.
	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	data, err := c.Get("npc_memory", "short-lived")
	require.NoError(t, err)
	assert.Nil(t, data)

	// No TTL means no expiry.
	data, err = c.Get("npc_memory", "durable")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestTTL_SweepExpired(t *testing.T) {
	c := New(&fakeProvider{}, func(o *Options) { o.Store = store.NewInMemory() })

	// Backdate the cache clock so the stored deadline is already in the past
	// relative to the store's real clock.
	c.now = func() time.Time { return time.Now().Add(-time.Hour) }
	require.NoError(t, c.Set("npc_memory", "stale", "x", time.Minute))

	c.now = time.Now
	require.NoError(t, c.Set("npc_memory", "fresh", "y", time.Hour))

	assert.Equal(t, 1, c.SweepExpired())
	assert.Equal(t, 0, c.SweepExpired())
}

func TestTTL_RequiresStore(t *testing.T) {
	c := New(&fakeProvider{})
	assert.Error(t, c.Set("npc_memory", "k", "v", 0))
	_, err := c.Get("npc_memory", "k")
	assert.Error(t, err)
	assert.Equal(t, 0, c.SweepExpired())
}
