package cache

import (
	"encoding/json"

	"github.com/hupe1980/crosstalk/core"
)

// AddEvent records a world event: deduplicated by id (a no-op when already
// buffered), prepended to the bounded ring buffer (drop-oldest on overflow),
// persisted and broadcast. Returns true when the event was new.
func (c *Cache) AddEvent(event core.RecentEvent) bool {
	c.mu.Lock()
	for _, existing := range c.events {
		if existing.ID == event.ID {
			c.mu.Unlock()
			return false
		}
	}
	ev := event.Clone()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = c.now().UTC()
	}
	c.events = append([]core.RecentEvent{ev}, c.events...)
	if len(c.events) > c.capacity {
		c.events = c.events[:c.capacity]
	}
	c.mu.Unlock()

	c.persistEvent(ev)
	if c.bus != nil {
		c.bus.Broadcast(c.sourceID, core.EventPayload{Event: ev}, core.PriorityNormal)
	}
	return true
}

func (c *Cache) persistEvent(ev core.RecentEvent) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		c.LogWarn("failed to encode event", "event_id", ev.ID, "error", err)
		return
	}
	err = c.store.SetSharedContext(core.ContextEntry{
		Type:      ContextTypeWorldEvent,
		Key:       ev.ID,
		Data:      data,
		UpdatedBy: c.sourceID,
	})
	if err != nil {
		c.LogWarn("failed to persist event", "event_id", ev.ID, "error", err)
	}
}

// GetRecentEvents returns up to limit buffered events, newest first,
// optionally filtered by type. limit <= 0 returns all buffered events.
func (c *Cache) GetRecentEvents(limit int, eventType string) []core.RecentEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.RecentEvent, 0, len(c.events))
	for _, ev := range c.events {
		if eventType != "" && ev.Type != eventType {
			continue
		}
		out = append(out, ev.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// GetUnprocessedEvents returns up to limit events the given agent has not yet
// consumed, newest first.
func (c *Cache) GetUnprocessedEvents(agentID string, limit int) []core.RecentEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []core.RecentEvent
	for _, ev := range c.events {
		if ev.ProcessedByAgent(agentID) {
			continue
		}
		out = append(out, ev.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// MarkEventProcessed records that an agent consumed an event. Idempotent:
// marking twice leaves a single entry. Returns false for unknown event ids.
func (c *Cache) MarkEventProcessed(eventID, agentID string) bool {
	c.mu.Lock()
	var marked *core.RecentEvent
	for i := range c.events {
		if c.events[i].ID != eventID {
			continue
		}
		if !c.events[i].ProcessedByAgent(agentID) {
			c.events[i].ProcessedBy = append(c.events[i].ProcessedBy, agentID)
		}
		ev := c.events[i].Clone()
		marked = &ev
		break
	}
	c.mu.Unlock()

	if marked == nil {
		return false
	}
	c.persistEvent(*marked)
	return true
}
