package crosstalk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/crosstalk/config"
	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/model"
)

func TestNew_Defaults(t *testing.T) {
	ct := New()
	assert.NotNil(t, ct.Bus())
	assert.Nil(t, ct.Cache(), "no world provider, no cache")
	assert.Nil(t, ct.Orchestrator(), "no model, no orchestrator")

	_, err := ct.StartDialogue("s1", "topic", []string{"a", "b"}, "a", 0)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestCrossTalk_EndToEnd(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	personas := core.NewStaticPersonaResolver(
		core.Persona{ID: "npc-1", Name: "Neo"},
		core.Persona{ID: "npc-2", Name: "Trinity"},
	)

	ct := New(func(o *Options) {
		o.Model = llm
		o.Personas = personas
		o.MaxTurns = 2
	})

	ct.RegisterAgent(core.AgentRecord{ID: "npc-1", Name: "Neo"})
	ct.RegisterAgent(core.AgentRecord{ID: "npc-2", Name: "Trinity"})
	assert.Len(t, ct.Bus().Agents(), 2)

	received := 0
	ct.Bus().OnMessage("npc-2", core.KindText, func(core.CoordinationMessage) error {
		received++
		return nil
	})
	_, err := ct.Bus().Send("npc-1", "npc-2", core.TextPayload{Text: "ready?"})
	require.NoError(t, err)
	assert.Equal(t, 1, received)

	// StartDialogue applies the configured default turn cap.
	session, err := ct.StartDialogue("s1", "the jump", []string{"npc-1", "npc-2"}, "npc-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, session.MaxTurns)

	require.NoError(t, ct.Start(context.Background()))
	ct.Stop()
}

func TestNewFromConfig_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	ct, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, ct.Bus())
	assert.NotNil(t, ct.Orchestrator(), "the default mock provider enables generation")
	assert.Nil(t, ct.Cache(), "no world provider, no cache")

	// The configured turn cap applies when StartDialogue gets no explicit one.
	session, err := ct.StartDialogue("s1", "patrol", []string{"a", "b"}, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxTurns, session.MaxTurns)
}

func TestNewFromConfig_SQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crosstalk.db")
	cfg := &config.Config{
		PollInterval:    time.Second,
		RefreshInterval: time.Second,
		MaxTurns:        4,
		StorePath:       path,
		Provider:        "mock",
		EventCapacity:   100,
		LogLevel:        "info",
		LogFormat:       "text",
	}
	require.NoError(t, cfg.Validate())

	ct, err := NewFromConfig(cfg)
	require.NoError(t, err)

	ct.RegisterAgent(core.AgentRecord{ID: "npc-1", Name: "Neo"})
	ct.RegisterAgent(core.AgentRecord{ID: "npc-2", Name: "Trinity"})
	_, err = ct.Bus().Send("npc-1", "npc-2", core.TextPayload{Text: "durable?"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "messages are mirrored into the configured database file")
}

func TestNewFromConfig_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Provider: "llama"}
	_, err := NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama")
}

func TestNewFromConfig_OptionOverrides(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	llm := model.NewMockModel("canned", "mock")
	ct, err := NewFromConfig(cfg, func(o *Options) {
		o.Model = llm
		o.TopicAgents = map[string]string{"weather": "Sage"}
	})
	require.NoError(t, err)

	ct.RegisterAgent(core.AgentRecord{ID: "npc-sage", Name: "Sage"})
	m := ct.Bus().DetectMention("what about the weather today?")
	require.NotNil(t, m)
	assert.Equal(t, "npc-sage", m.AgentID)
}
