package store

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/crosstalk/core"
)

// InMemory is a volatile core.Store implementation keeping messages and
// context entries in process-local collections. It is safe for concurrent
// access and best suited for tests or single-process deployments where
// cross-process polling is not needed. Returned records are copies to prevent
// external mutation of internal state.
type InMemory struct {
	mu       sync.RWMutex
	messages []*core.StoredMessage
	contexts map[string]map[string]core.ContextEntry // type -> key -> entry
	now      func() time.Time
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		contexts: make(map[string]map[string]core.ContextEntry),
		now:      time.Now,
	}
}

// SendCoordinationMessage mirrors a message and returns its id.
func (s *InMemory) SendCoordinationMessage(from, to string, payload core.Payload) (string, error) {
	raw, err := core.MarshalPayload(payload)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := &core.StoredMessage{
		ID:        core.NewID(),
		From:      from,
		To:        to,
		Kind:      payload.Kind(),
		Payload:   raw,
		CreatedAt: s.now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// UnprocessedCoordinationMessages returns unprocessed messages addressed to
// the agent or broadcast, authored by someone else, oldest first.
func (s *InMemory) UnprocessedCoordinationMessages(agentID string) ([]core.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.StoredMessage
	for _, msg := range s.messages {
		if msg.Processed || msg.From == agentID {
			continue
		}
		if msg.To != "" && msg.To != agentID {
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}

// MarkCoordinationMessageProcessed flags a durable message as consumed.
// Unknown ids are a no-op so racing processes can both mark the same row.
func (s *InMemory) MarkCoordinationMessageProcessed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ID == id {
			now := s.now().UTC()
			msg.Processed = true
			msg.ProcessedAt = &now
			return nil
		}
	}
	return nil
}

// CleanOldCoordinationMessages deletes messages older than maxAge.
func (s *InMemory) CleanOldCoordinationMessages(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxAge)
	kept := s.messages[:0]
	removed := 0
	for _, msg := range s.messages {
		if msg.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	s.messages = kept
	return removed, nil
}

// SetSharedContext upserts an entry, unique on (Type, Key). CreatedAt is
// preserved across updates.
func (s *InMemory) SetSharedContext(entry core.ContextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.contexts[entry.Type]
	if !ok {
		byKey = make(map[string]core.ContextEntry)
		s.contexts[entry.Type] = byKey
	}
	now := s.now().UTC()
	if existing, ok := byKey[entry.Key]; ok {
		entry.CreatedAt = existing.CreatedAt
	} else if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	byKey[entry.Key] = entry
	return nil
}

// GetSharedContext returns entries for the type; key == "" returns all
// entries of the type, most recently updated first.
func (s *InMemory) GetSharedContext(ctxType, key string) ([]core.ContextEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byKey, ok := s.contexts[ctxType]
	if !ok {
		return nil, nil
	}
	if key != "" {
		entry, ok := byKey[key]
		if !ok {
			return nil, nil
		}
		return []core.ContextEntry{entry}, nil
	}
	out := make([]core.ContextEntry, 0, len(byKey))
	for _, entry := range byKey {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// CleanExpiredSharedContext deletes entries whose TTL has passed.
func (s *InMemory) CleanExpiredSharedContext() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for _, byKey := range s.contexts {
		for key, entry := range byKey {
			if entry.Expired(now) {
				delete(byKey, key)
				removed++
			}
		}
	}
	return removed, nil
}
