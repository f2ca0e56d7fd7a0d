package core

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders coordination messages on the bus queue. The enqueue rule
// is deliberately positional (see bus documentation), so Priority is a tag,
// not a sortable weight.
type Priority string

const (
	// PriorityUrgent messages jump to the front of the queue.
	PriorityUrgent Priority = "urgent"
	// PriorityHigh messages are inserted ahead of all normal/low entries
	// present at enqueue time.
	PriorityHigh Priority = "high"
	// PriorityNormal messages are appended at the tail.
	PriorityNormal Priority = "normal"
	// PriorityLow messages are appended at the tail.
	PriorityLow Priority = "low"
)

// CoordinationMessage is the unit of communication between agents. An empty
// To field addresses all registered agents except the sender (broadcast).
// After emission it should be treated as immutable.
type CoordinationMessage struct {
	ID        string     `json:"id"`
	From      string     `json:"from"`
	To        string     `json:"to,omitempty"`
	Priority  Priority   `json:"priority"`
	Payload   Payload    `json:"-"`
	Timestamp time.Time  `json:"timestamp"`
	ReplyTo   string     `json:"reply_to,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewMessage creates a coordination message with a fresh ID and UTC
// timestamp. To == "" produces a broadcast.
func NewMessage(from, to string, payload Payload, priority Priority) CoordinationMessage {
	if priority == "" {
		priority = PriorityNormal
	}
	return CoordinationMessage{
		ID:        NewID(),
		From:      from,
		To:        to,
		Priority:  priority,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// IsBroadcast reports whether the message has no explicit recipient.
func (m CoordinationMessage) IsBroadcast() bool { return m.To == "" }

// IsExpired reports whether the message carries an ExpiresAt in the past.
func (m CoordinationMessage) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// NewID generates a new unique identifier for messages, events and sessions.
func NewID() string { return uuid.NewString() }
