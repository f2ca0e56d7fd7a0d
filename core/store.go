package core

import (
	"encoding/json"
	"time"
)

// StoredMessage is the durable mirror of a CoordinationMessage. The Processed
// flag and ProcessedAt timestamp drive cross-process dedup in the polling
// bridge (at-least-once, so duplicates remain possible across racing
// processes).
type StoredMessage struct {
	ID          string          `json:"id"`
	From        string          `json:"from"`
	To          string          `json:"to,omitempty"` // empty = broadcast
	Kind        PayloadKind     `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	Processed   bool            `json:"processed"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// Message reconstructs the in-memory coordination message, decoding the
// payload envelope.
func (m StoredMessage) Message() (CoordinationMessage, error) {
	payload, err := UnmarshalPayload(m.Payload)
	if err != nil {
		return CoordinationMessage{}, err
	}
	return CoordinationMessage{
		ID:        m.ID,
		From:      m.From,
		To:        m.To,
		Priority:  PriorityNormal,
		Payload:   payload,
		Timestamp: m.CreatedAt,
	}, nil
}

// Store is the durable persistence collaborator. Implementations live in the
// store package (in-memory) and store/sqlite. Write failures on the mirroring
// paths are logged and swallowed by callers: the in-memory operation that
// triggered them has already succeeded and is not rolled back.
type Store interface {
	// SendCoordinationMessage mirrors a message for cross-process pickup and
	// returns its id. An empty to addresses all agents in other processes.
	SendCoordinationMessage(from, to string, payload Payload) (string, error)

	// UnprocessedCoordinationMessages returns messages addressed to the agent
	// (or broadcast), authored by someone else and not yet marked processed,
	// oldest first.
	UnprocessedCoordinationMessages(agentID string) ([]StoredMessage, error)

	// MarkCoordinationMessageProcessed flags a durable message as consumed.
	MarkCoordinationMessageProcessed(id string) error

	// CleanOldCoordinationMessages deletes messages older than maxAge and
	// returns the number removed.
	CleanOldCoordinationMessages(maxAge time.Duration) (int, error)

	// SetSharedContext upserts a keyed context entry, unique on (Type, Key).
	SetSharedContext(entry ContextEntry) error

	// GetSharedContext returns entries for the type; key == "" returns all
	// entries of the type, most recently updated first.
	GetSharedContext(ctxType, key string) ([]ContextEntry, error)

	// CleanExpiredSharedContext deletes entries whose TTL has passed and
	// returns the number removed.
	CleanExpiredSharedContext() (int, error)
}
