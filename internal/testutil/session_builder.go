package testutil

import (
	"github.com/hupe1980/crosstalk/core"
)

// SessionBuilder helps construct dialogue sessions with fluent chaining for
// tests. Example:
//
//	sess := NewSessionBuilder("sess-1").Topic("weather").Participants("a", "b").Build()
type SessionBuilder struct {
	id           string
	topic        string
	participants []string
	initiator    string
	maxTurns     int
	turns        []core.DialogueTurn
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Use chainable methods (Topic, Participants, Turn) then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, topic: "test-topic", participants: []string{"a", "b"}, maxTurns: 4}
}

// Topic sets the session topic (chainable).
func (b *SessionBuilder) Topic(t string) *SessionBuilder { b.topic = t; return b }

// Participants replaces the participant list (chainable).
func (b *SessionBuilder) Participants(ids ...string) *SessionBuilder {
	b.participants = ids
	return b
}

// Initiator sets the first speaker; defaults to the first participant (chainable).
func (b *SessionBuilder) Initiator(id string) *SessionBuilder { b.initiator = id; return b }

// MaxTurns sets the turn cap (chainable).
func (b *SessionBuilder) MaxTurns(n int) *SessionBuilder { b.maxTurns = n; return b }

// Turn appends a pre-recorded transcript turn applied via Append (chainable).
func (b *SessionBuilder) Turn(speaker, message string) *SessionBuilder {
	b.turns = append(b.turns, core.DialogueTurn{Speaker: speaker, Message: message})
	return b
}

// Build returns a *core.DialogueSession with the recorded turns applied.
func (b *SessionBuilder) Build() *core.DialogueSession {
	initiator := b.initiator
	if initiator == "" && len(b.participants) > 0 {
		initiator = b.participants[0]
	}
	s := core.NewDialogueSession(b.id, b.topic, b.participants, initiator, b.maxTurns)
	for _, t := range b.turns {
		s.Append(t.Speaker, t.Message)
	}
	return s
}
