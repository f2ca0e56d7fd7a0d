package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/core"
)

func newMentionBus(topicAgents map[string]string) *Bus {
	b := New(func(o *Options) { o.TopicAgents = topicAgents })
	b.RegisterAgent(core.AgentRecord{ID: "npc-1", Name: "Neo"})
	b.RegisterAgent(core.AgentRecord{ID: "npc-2", Name: "Trinity"})
	return b
}

func TestDetectMention_ByName(t *testing.T) {
	b := newMentionBus(nil)

	m := b.DetectMention("hey Neo, what do you think?")
	require.NotNil(t, m)
	assert.Equal(t, "npc-1", m.AgentID)
	assert.Equal(t, "Neo", m.AgentName)

	m = b.DetectMention("ping @trinity about this")
	require.NotNil(t, m)
	assert.Equal(t, "npc-2", m.AgentID)
}

func TestDetectMention_RegistrationOrderWins(t *testing.T) {
	b := newMentionBus(nil)
	m := b.DetectMention("neo and trinity should both hear this")
	require.NotNil(t, m)
	assert.Equal(t, "npc-1", m.AgentID, "earlier registration wins on multiple matches")
}

func TestDetectMention_TopicFallback(t *testing.T) {
	b := newMentionBus(map[string]string{"matrix": "Trinity", "weather": "Neo"})

	m := b.DetectMention("anything new in the matrix?")
	require.NotNil(t, m)
	assert.Equal(t, "npc-2", m.AgentID)

	// Topic keyword mapped to an unregistered agent resolves to nothing.
	b2 := New(func(o *Options) { o.TopicAgents = map[string]string{"matrix": "Morpheus"} })
	b2.RegisterAgent(core.AgentRecord{ID: "npc-1", Name: "Neo"})
	assert.Nil(t, b2.DetectMention("anything new in the matrix?"))
}

func TestDetectMention_NoMatch(t *testing.T) {
	b := newMentionBus(map[string]string{"weather": "Neo"})
	assert.Nil(t, b.DetectMention("nothing relevant here"))
}
