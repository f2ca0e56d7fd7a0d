package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/core"
)

// Interface compliance (compile-time assertion)
var _ core.Store = (*InMemory)(nil)

func TestInMemory_CoordinationMessages(t *testing.T) {
	s := NewInMemory()

	id1, err := s.SendCoordinationMessage("a", "b", core.TextPayload{Text: "direct"})
	require.NoError(t, err)
	_, err = s.SendCoordinationMessage("a", "", core.TextPayload{Text: "broadcast"})
	require.NoError(t, err)
	_, err = s.SendCoordinationMessage("b", "a", core.TextPayload{Text: "own"})
	require.NoError(t, err)

	// b sees the direct message and the broadcast, never its own sends.
	rows, err := s.UnprocessedCoordinationMessages("b")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, id1, rows[0].ID, "oldest first")

	msg, err := rows[0].Message()
	require.NoError(t, err)
	text, ok := msg.Payload.(core.TextPayload)
	require.True(t, ok)
	assert.Equal(t, "direct", text.Text)

	require.NoError(t, s.MarkCoordinationMessageProcessed(id1))
	require.NoError(t, s.MarkCoordinationMessageProcessed("unknown")) // no-op

	rows, err = s.UnprocessedCoordinationMessages("b")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// c sees only the broadcast.
	rows, err = s.UnprocessedCoordinationMessages("c")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].To)
}

func TestInMemory_CleanOldCoordinationMessages(t *testing.T) {
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_, err := s.SendCoordinationMessage("a", "b", core.TextPayload{Text: "old"})
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = s.SendCoordinationMessage("a", "b", core.TextPayload{Text: "fresh"})
	require.NoError(t, err)

	removed, err := s.CleanOldCoordinationMessages(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rows, err := s.UnprocessedCoordinationMessages("b")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestInMemory_SharedContext(t *testing.T) {
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	entry := core.ContextEntry{Type: "world_state", Key: "current", Data: json.RawMessage(`{"health":80}`), UpdatedBy: "cache"}
	require.NoError(t, s.SetSharedContext(entry))

	got, err := s.GetSharedContext("world_state", "current")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, base, got[0].CreatedAt)
	assert.JSONEq(t, `{"health":80}`, string(got[0].Data))

	// Updating preserves CreatedAt and bumps UpdatedAt.
	s.now = func() time.Time { return base.Add(time.Minute) }
	entry.Data = json.RawMessage(`{"health":60}`)
	require.NoError(t, s.SetSharedContext(entry))
	got, err = s.GetSharedContext("world_state", "current")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, base, got[0].CreatedAt)
	assert.Equal(t, base.Add(time.Minute), got[0].UpdatedAt)

	// Unknown type or key returns nothing.
	got, err = s.GetSharedContext("bogus", "")
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = s.GetSharedContext("world_state", "bogus")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemory_GetSharedContextAllSorted(t *testing.T) {
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, key := range []string{"first", "second", "third"} {
		tick := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return tick }
		require.NoError(t, s.SetSharedContext(core.ContextEntry{Type: "world_event", Key: key}))
	}

	got, err := s.GetSharedContext("world_event", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Key, "most recently updated first")
	assert.Equal(t, "first", got[2].Key)
}

func TestInMemory_CleanExpiredSharedContext(t *testing.T) {
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	past := base.Add(-time.Minute)
	future := base.Add(time.Hour)
	require.NoError(t, s.SetSharedContext(core.ContextEntry{Type: "memo", Key: "stale", ExpiresAt: &past}))
	require.NoError(t, s.SetSharedContext(core.ContextEntry{Type: "memo", Key: "fresh", ExpiresAt: &future}))
	require.NoError(t, s.SetSharedContext(core.ContextEntry{Type: "memo", Key: "forever"}))

	removed, err := s.CleanExpiredSharedContext()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := s.GetSharedContext("memo", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
