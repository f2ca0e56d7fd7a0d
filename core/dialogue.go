package core

import (
	"sync"
	"time"
)

// DialogueTurn is a single transcript entry of a dialogue session.
type DialogueTurn struct {
	Speaker   string    `json:"speaker"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DialogueSession is a bounded, turn-ordered multi-party conversation. It is
// safe for concurrent access.
//
// Contract:
//   - CurrentSpeaker is always one of Participants
//   - Turn increases by exactly 1 per accepted Append
//   - the session is complete (and removed by the orchestrator) once
//     Turn == MaxTurns
//   - Clone performs deep copies for safe divergence.
type DialogueSession struct {
	ID             string         `json:"id"`
	Topic          string         `json:"topic"`
	Participants   []string       `json:"participants"`
	Initiator      string         `json:"initiator"`
	CurrentSpeaker string         `json:"current_speaker"`
	Turn           int            `json:"turn"`
	Transcript     []DialogueTurn `json:"transcript"`
	MaxTurns       int            `json:"max_turns"`
	Created        time.Time      `json:"created"`
	mu             sync.RWMutex
}

// NewDialogueSession creates an active session with the initiator speaking
// first and an empty transcript.
func NewDialogueSession(id, topic string, participants []string, initiator string, maxTurns int) *DialogueSession {
	return &DialogueSession{
		ID:             id,
		Topic:          topic,
		Participants:   append([]string(nil), participants...),
		Initiator:      initiator,
		CurrentSpeaker: initiator,
		Transcript:     []DialogueTurn{},
		MaxTurns:       maxTurns,
		Created:        time.Now().UTC(),
	}
}

// Append records a turn for the given speaker. It returns false without any
// mutation when the speaker is not the current one or the session has already
// consumed all of its turns. On success the turn counter increments and
// CurrentSpeaker advances to the next participant in fixed order, wrapping to
// the first.
func (s *DialogueSession) Append(speaker, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if speaker != s.CurrentSpeaker || s.Turn >= s.MaxTurns {
		return false
	}
	s.Transcript = append(s.Transcript, DialogueTurn{Speaker: speaker, Message: message, Timestamp: time.Now().UTC()})
	s.Turn++
	idx := 0
	for i, p := range s.Participants {
		if p == speaker {
			idx = i
			break
		}
	}
	s.CurrentSpeaker = s.Participants[(idx+1)%len(s.Participants)]
	return true
}

// Complete reports whether the session has consumed all of its turns.
func (s *DialogueSession) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Turn >= s.MaxTurns
}

// Snapshot returns the fields needed for a dialogue broadcast without
// exposing internal slices.
func (s *DialogueSession) Snapshot() DialoguePayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := DialoguePayload{
		SessionID:      s.ID,
		Topic:          s.Topic,
		Participants:   append([]string(nil), s.Participants...),
		CurrentSpeaker: s.CurrentSpeaker,
		Turn:           s.Turn,
	}
	if n := len(s.Transcript); n > 0 {
		p.LastSpeaker = s.Transcript[n-1].Speaker
		p.LastMessage = s.Transcript[n-1].Message
	}
	return p
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *DialogueSession) Clone() *DialogueSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &DialogueSession{
		ID:             s.ID,
		Topic:          s.Topic,
		Participants:   append([]string(nil), s.Participants...),
		Initiator:      s.Initiator,
		CurrentSpeaker: s.CurrentSpeaker,
		Turn:           s.Turn,
		Transcript:     make([]DialogueTurn, len(s.Transcript)),
		MaxTurns:       s.MaxTurns,
		Created:        s.Created,
	}
	copy(clone.Transcript, s.Transcript)
	return clone
}
