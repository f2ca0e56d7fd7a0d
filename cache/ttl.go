package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/crosstalk/core"
)

// Set stores a keyed context entry through the durable store, with an
// optional TTL. ttl <= 0 stores the entry without expiry.
func (c *Cache) Set(ctxType, key string, data any, ttl time.Duration) error {
	if c.store == nil {
		return fmt.Errorf("cache: no store configured")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode context entry %s/%s: %w", ctxType, key, err)
	}
	entry := core.ContextEntry{
		Type:      ctxType,
		Key:       key,
		Data:      raw,
		UpdatedBy: c.sourceID,
	}
	if ttl > 0 {
		expires := c.now().Add(ttl)
		entry.ExpiresAt = &expires
	}
	return c.store.SetSharedContext(entry)
}

// Get returns the entry's data, or nil once its TTL has passed even when the
// underlying row has not yet been swept.
func (c *Cache) Get(ctxType, key string) (json.RawMessage, error) {
	if c.store == nil {
		return nil, fmt.Errorf("cache: no store configured")
	}
	entries, err := c.store.GetSharedContext(ctxType, key)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Expired(c.now()) {
		return nil, nil
	}
	return entries[0].Data, nil
}

// SweepExpired removes expired rows from the durable store. Failures are
// logged and swallowed; the next sweep retries.
func (c *Cache) SweepExpired() int {
	if c.store == nil {
		return 0
	}
	n, err := c.store.CleanExpiredSharedContext()
	if err != nil {
		c.LogWarn("context sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		c.LogDebug("swept expired context entries", "count", n)
	}
	return n
}
