package core

import (
	"encoding/json"
	"time"
)

// RankedEntity is one entry of a snapshot's top-N ranking.
type RankedEntity struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// WorldSnapshot is the cached view of live external world state. Snapshots
// are replaced wholesale on refresh; fields are never mutated in place.
type WorldSnapshot struct {
	Health        int            `json:"health"` // 0-100
	Weather       string         `json:"weather"`
	BuildingCount int            `json:"building_count"`
	EntityCount   int            `json:"entity_count"`
	TotalVolume   float64        `json:"total_volume"`
	TopEntities   []RankedEntity `json:"top_entities,omitempty"`
	LastUpdated   time.Time      `json:"last_updated"`
}

// Clone returns a copy with an independent TopEntities slice.
func (s WorldSnapshot) Clone() WorldSnapshot {
	clone := s
	clone.TopEntities = append([]RankedEntity(nil), s.TopEntities...)
	return clone
}

// RecentEvent is a world event held in the cache's bounded buffer. ID is the
// dedup key; ProcessedBy records which agents have consumed the event.
type RecentEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload,omitempty"`
	ProcessedBy []string       `json:"processed_by,omitempty"`
}

// ProcessedByAgent reports whether the given agent already consumed the event.
func (e RecentEvent) ProcessedByAgent(agentID string) bool {
	for _, id := range e.ProcessedBy {
		if id == agentID {
			return true
		}
	}
	return false
}

// Clone returns a copy with independent Payload / ProcessedBy containers.
func (e RecentEvent) Clone() RecentEvent {
	clone := e
	clone.ProcessedBy = append([]string(nil), e.ProcessedBy...)
	if e.Payload != nil {
		clone.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			clone.Payload[k] = v
		}
	}
	return clone
}

// ContextEntry is a keyed shared-context record, unique on (Type, Key).
// A nil ExpiresAt means the entry never expires.
type ContextEntry struct {
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	UpdatedBy string          `json:"updated_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Expired reports whether the entry's TTL has passed at the given instant.
func (e ContextEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}
