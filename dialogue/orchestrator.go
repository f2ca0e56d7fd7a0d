package dialogue

import (
	"fmt"
	"sync"

	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/logging"
	"github.com/hupe1980/crosstalk/model"
)

// DefaultMaxTurns bounds a session when the caller does not specify a limit.
const DefaultMaxTurns = 6

// Bus is the messaging surface the orchestrator needs. *bus.Bus satisfies it.
type Bus interface {
	Broadcast(from string, payload core.Payload, priority core.Priority) string
	GetAgent(id string) (core.AgentRecord, bool)
	Agents() []core.AgentRecord
}

// ContextFormatter supplies the shared-context text block for prompts.
// *cache.Cache satisfies it.
type ContextFormatter interface {
	FormatForPrompt() string
}

// Options configures an Orchestrator instance.
type Options struct {
	// Bus receives dialogue lifecycle broadcasts and answers agent lookups.
	// Nil disables broadcasting; generation then omits active-agent notes.
	Bus Bus

	// Context formats shared world context into prompts. Nil omits the block.
	Context ContextFormatter

	// SourceID is the sender id used for dialogue broadcasts.
	SourceID string

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Orchestrator manages active dialogue sessions and drives persona response
// generation. Sessions have exactly two states: present in the table
// (active) or removed (complete); there is no resurrection.
type Orchestrator struct {
	core.LoggerAdapter

	mu       sync.Mutex
	sessions map[string]*core.DialogueSession

	llm      model.Model
	personas core.PersonaResolver
	bus      Bus
	context  ContextFormatter
	sourceID string
}

// New constructs an Orchestrator for the given completion provider and
// persona resolver, with optional overrides.
func New(llm model.Model, personas core.PersonaResolver, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		SourceID: "orchestrator",
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		sessions:      make(map[string]*core.DialogueSession),
		llm:           llm,
		personas:      personas,
		bus:           opts.Bus,
		context:       opts.Context,
		sourceID:      opts.SourceID,
	}
}

// StartDialogue creates an active session with the initiator speaking first
// and broadcasts the opening payload. maxTurns <= 0 applies DefaultMaxTurns.
func (o *Orchestrator) StartDialogue(id, topic string, participants []string, initiator string, maxTurns int) (*core.DialogueSession, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("start dialogue %q: need at least 2 participants, got %d", id, len(participants))
	}
	found := false
	for _, p := range participants {
		if p == initiator {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("start dialogue %q: initiator %q is not a participant", id, initiator)
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	session := core.NewDialogueSession(id, topic, participants, initiator, maxTurns)

	o.mu.Lock()
	if _, exists := o.sessions[id]; exists {
		o.mu.Unlock()
		return nil, fmt.Errorf("start dialogue %q: session already active", id)
	}
	o.sessions[id] = session
	o.mu.Unlock()

	o.LogInfo("dialogue started", "session_id", id, "topic", topic, "participants", len(participants))
	o.broadcast(session)
	return session.Clone(), nil
}

// AddTurn records a turn. It returns false without any observable mutation
// when the session is unknown or the speaker is out of order. Reaching
// maxTurns completes the session in the same call: it is removed from the
// active table and no further broadcast is made. Otherwise the updated
// session is broadcast.
func (o *Orchestrator) AddTurn(id, speaker, message string) bool {
	o.mu.Lock()
	session, ok := o.sessions[id]
	o.mu.Unlock()
	if !ok {
		return false
	}
	if !session.Append(speaker, message) {
		return false
	}

	if session.Complete() {
		o.mu.Lock()
		delete(o.sessions, id)
		o.mu.Unlock()
		o.LogInfo("dialogue complete", "session_id", id)
		return true
	}

	o.broadcast(session)
	return true
}

// EndDialogue terminates a session early, returning the removed session or
// nil when absent.
func (o *Orchestrator) EndDialogue(id string) *core.DialogueSession {
	o.mu.Lock()
	session, ok := o.sessions[id]
	if ok {
		delete(o.sessions, id)
	}
	o.mu.Unlock()
	if !ok {
		return nil
	}
	clone := session.Clone()
	o.LogInfo("dialogue ended", "session_id", id, "turns", clone.Turn)
	return clone
}

// GetSession returns a clone of an active session.
func (o *Orchestrator) GetSession(id string) (*core.DialogueSession, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.sessions[id]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// ActiveSessionIDs returns the ids of all sessions still in the table.
func (o *Orchestrator) ActiveSessionIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) broadcast(session *core.DialogueSession) {
	if o.bus == nil {
		return
	}
	o.bus.Broadcast(o.sourceID, session.Snapshot(), core.PriorityNormal)
}

// resolvePersona maps an agent id to its persona, preferring the registry's
// persona reference when the agent is registered.
func (o *Orchestrator) resolvePersona(agentID string) (core.Persona, error) {
	personaID := agentID
	if o.bus != nil {
		if rec, ok := o.bus.GetAgent(agentID); ok && rec.PersonaID != "" {
			personaID = rec.PersonaID
		}
	}
	return o.personas.Resolve(personaID)
}

// formatContext returns the shared-context prompt block, or "" when no
// formatter is wired.
func (o *Orchestrator) formatContext() string {
	if o.context == nil {
		return ""
	}
	return o.context.FormatForPrompt()
}
