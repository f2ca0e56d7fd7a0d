package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/store"
)

func TestPollOnce_DeliversRemoteMessages(t *testing.T) {
	shared := store.NewInMemory()

	b := New(func(o *Options) { o.Store = shared })
	b.RegisterAgent(core.AgentRecord{ID: "local", Name: "Local"})

	var r recorder
	b.OnMessage("local", core.KindText, r.handler)

	// Another process writes directly to the shared store.
	_, err := shared.SendCoordinationMessage("remote", "local", core.TextPayload{Text: "from afar"})
	require.NoError(t, err)

	b.PollOnce()
	assert.Equal(t, []string{"from afar"}, r.texts())

	// Processed rows are not redelivered on the next pass.
	b.PollOnce()
	assert.Len(t, r.texts(), 1)
}

func TestPollOnce_BroadcastRowDeliveredOncePerPass(t *testing.T) {
	shared := store.NewInMemory()

	b := New(func(o *Options) { o.Store = shared })
	recorders := map[string]*recorder{}
	for _, id := range []string{"a", "b"} {
		b.RegisterAgent(core.AgentRecord{ID: id, Name: id})
		r := &recorder{}
		recorders[id] = r
		b.OnMessage(id, core.KindText, r.handler)
	}

	// A broadcast row shows up in both agents' unprocessed queries; the pass
	// must fan it out exactly once.
	_, err := shared.SendCoordinationMessage("remote", "", core.TextPayload{Text: "to everyone"})
	require.NoError(t, err)

	b.PollOnce()
	assert.Equal(t, []string{"to everyone"}, recorders["a"].texts())
	assert.Equal(t, []string{"to everyone"}, recorders["b"].texts())
}

func TestPollOnce_SkipsOwnMessages(t *testing.T) {
	shared := store.NewInMemory()

	b := New(func(o *Options) { o.Store = shared })
	b.RegisterAgent(core.AgentRecord{ID: "local", Name: "Local"})

	var r recorder
	b.OnMessage("local", core.KindText, r.handler)

	_, err := shared.SendCoordinationMessage("local", "other", core.TextPayload{Text: "outbound"})
	require.NoError(t, err)

	b.PollOnce()
	assert.Empty(t, r.texts())
}

func TestStartStopPolling(t *testing.T) {
	shared := store.NewInMemory()
	b := New(func(o *Options) { o.Store = shared })

	b.StartPolling(10 * time.Millisecond)
	b.StartPolling(10 * time.Millisecond) // second start is a no-op
	b.StopPolling()
	b.StopPolling() // second stop is a no-op

	// Without a store polling never starts.
	b2 := New()
	b2.StartPolling(0)
	b2.StopPolling()
}
