package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/core"
)

func newEventCache() *Cache {
	return New(&fakeProvider{})
}

func TestAddEvent_DedupAndBroadcast(t *testing.T) {
	bc := &fakeBroadcaster{}
	c := New(&fakeProvider{}, func(o *Options) { o.Bus = bc })

	assert.True(t, c.AddEvent(core.RecentEvent{ID: "ev-1", Type: "building_placed"}))
	assert.False(t, c.AddEvent(core.RecentEvent{ID: "ev-1", Type: "building_placed"}), "duplicate id is a no-op")

	assert.Len(t, c.GetRecentEvents(0, ""), 1)
	assert.Equal(t, []core.PayloadKind{core.KindEvent}, bc.kinds(), "duplicates are not rebroadcast")
}

func TestAddEvent_RingBufferDropsOldest(t *testing.T) {
	c := newEventCache()
	for i := 0; i < 105; i++ {
		require.True(t, c.AddEvent(core.RecentEvent{ID: fmt.Sprintf("ev-%d", i), Type: "tick"}))
	}

	events := c.GetRecentEvents(0, "")
	require.Len(t, events, 100)
	assert.Equal(t, "ev-104", events[0].ID, "newest first")
	assert.Equal(t, "ev-5", events[99].ID, "five oldest dropped")
}

func TestGetRecentEvents_LimitAndTypeFilter(t *testing.T) {
	c := newEventCache()
	c.AddEvent(core.RecentEvent{ID: "ev-1", Type: "building_placed"})
	c.AddEvent(core.RecentEvent{ID: "ev-2", Type: "entity_spawned"})
	c.AddEvent(core.RecentEvent{ID: "ev-3", Type: "building_placed"})

	assert.Len(t, c.GetRecentEvents(2, ""), 2)

	placed := c.GetRecentEvents(0, "building_placed")
	require.Len(t, placed, 2)
	assert.Equal(t, "ev-3", placed[0].ID)
}

func TestMarkEventProcessed(t *testing.T) {
	c := newEventCache()
	c.AddEvent(core.RecentEvent{ID: "ev-1", Type: "tick"})
	c.AddEvent(core.RecentEvent{ID: "ev-2", Type: "tick"})

	assert.False(t, c.MarkEventProcessed("unknown", "npc-1"))

	assert.True(t, c.MarkEventProcessed("ev-1", "npc-1"))
	assert.True(t, c.MarkEventProcessed("ev-1", "npc-1"), "idempotent")

	unprocessed := c.GetUnprocessedEvents("npc-1", 0)
	require.Len(t, unprocessed, 1)
	assert.Equal(t, "ev-2", unprocessed[0].ID)

	// Marking is per agent.
	assert.Len(t, c.GetUnprocessedEvents("npc-2", 0), 2)

	events := c.GetRecentEvents(0, "")
	for _, ev := range events {
		if ev.ID == "ev-1" {
			assert.Equal(t, []string{"npc-1"}, ev.ProcessedBy)
		}
	}
}
