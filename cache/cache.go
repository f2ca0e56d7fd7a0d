package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/logging"
)

// Context types used for durable persistence.
const (
	ContextTypeWorldState = "world_state"
	ContextTypeWorldEvent = "world_event"

	worldStateKey = "current"
)

// Significance thresholds: a refresh is persisted and broadcast only when the
// snapshot moved at least this much.
const (
	healthDelta      = 5    // absolute health points
	volumeDeltaRatio = 0.10 // relative to the previous total volume
)

// Broadcaster publishes cache updates to other agents. *bus.Bus satisfies it.
type Broadcaster interface {
	Broadcast(from string, payload core.Payload, priority core.Priority) string
}

// Options configures a Cache instance.
type Options struct {
	// Store persists snapshots, events and TTL entries. Nil keeps everything
	// in memory only.
	Store core.Store

	// Bus receives world-update and event broadcasts. Nil disables publishing.
	Bus Broadcaster

	// SourceID is the sender id used for cache broadcasts.
	SourceID string

	// RefreshInterval drives StartAutoRefresh.
	RefreshInterval time.Duration

	// EventCapacity bounds the recent-event ring buffer.
	EventCapacity int

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Cache is the shared context cache. Safe for concurrent access.
type Cache struct {
	core.LoggerAdapter

	mu          sync.RWMutex
	snapshot    core.WorldSnapshot
	hasSnapshot bool
	events      []core.RecentEvent // newest first
	capacity    int

	provider core.WorldProvider
	store    core.Store
	bus      Broadcaster
	sourceID string

	refreshInterval time.Duration
	refreshStop     chan struct{}
	refreshDone     chan struct{}

	now func() time.Time
}

// New constructs a Cache for the given world provider with optional overrides.
func New(provider core.WorldProvider, optFns ...func(o *Options)) *Cache {
	opts := Options{
		SourceID:        "world-cache",
		RefreshInterval: 30 * time.Second,
		EventCapacity:   100,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{
		LoggerAdapter:   core.NewLoggerAdapter(opts.Logger),
		capacity:        opts.EventCapacity,
		provider:        provider,
		store:           opts.Store,
		bus:             opts.Bus,
		sourceID:        opts.SourceID,
		refreshInterval: opts.RefreshInterval,
		now:             time.Now,
	}
}

// Initialize loads the most recent persisted snapshot and events, then
// performs a first live refresh so readers start from current state.
func (c *Cache) Initialize(ctx context.Context) error {
	if c.store != nil {
		c.loadPersisted()
	}
	c.RefreshWorldState(ctx)
	return ctx.Err()
}

func (c *Cache) loadPersisted() {
	entries, err := c.store.GetSharedContext(ContextTypeWorldState, worldStateKey)
	if err != nil {
		c.LogWarn("failed to load persisted snapshot", "error", err)
	} else if len(entries) > 0 {
		var snap core.WorldSnapshot
		if err := json.Unmarshal(entries[0].Data, &snap); err != nil {
			c.LogWarn("failed to decode persisted snapshot", "error", err)
		} else {
			c.mu.Lock()
			c.snapshot = snap
			c.hasSnapshot = true
			c.mu.Unlock()
		}
	}

	eventRows, err := c.store.GetSharedContext(ContextTypeWorldEvent, "")
	if err != nil {
		c.LogWarn("failed to load persisted events", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range eventRows {
		if len(c.events) >= c.capacity {
			break
		}
		var ev core.RecentEvent
		if err := json.Unmarshal(row.Data, &ev); err != nil {
			continue
		}
		c.events = append(c.events, ev)
	}
}

// GetWorldState returns the current in-memory snapshot. It is always the
// latest successfully fetched state, including changes too small to have
// been persisted or broadcast.
func (c *Cache) GetWorldState() core.WorldSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

// RefreshWorldState fetches a live snapshot. On fetch failure it logs and
// returns the previous snapshot unchanged: callers always get a usable,
// possibly stale view and never an error. On success the in-memory snapshot
// is always replaced; persistence and broadcast happen only when the change
// is significant. The very first snapshot is always significant.
func (c *Cache) RefreshWorldState(ctx context.Context) core.WorldSnapshot {
	state, err := c.provider.Fetch(ctx)
	if err != nil {
		c.LogWarn("world state fetch failed, serving previous snapshot", "error", err)
		return c.GetWorldState()
	}

	snap := state.Snapshot.Clone()
	snap.LastUpdated = c.now().UTC()

	c.mu.Lock()
	significant := !c.hasSnapshot || significantChange(c.snapshot, snap)
	c.snapshot = snap
	c.hasSnapshot = true
	c.mu.Unlock()

	if significant {
		c.persistSnapshot(snap)
		if c.bus != nil {
			c.bus.Broadcast(c.sourceID, core.WorldUpdatePayload{Snapshot: snap}, core.PriorityNormal)
		}
	}
	c.LogDebug("world state refreshed", "significant", significant, "health", snap.Health, "weather", snap.Weather)

	for _, ev := range state.Events {
		c.AddEvent(ev)
	}
	return snap.Clone()
}

func (c *Cache) persistSnapshot(snap core.WorldSnapshot) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.LogWarn("failed to encode snapshot", "error", err)
		return
	}
	err = c.store.SetSharedContext(core.ContextEntry{
		Type:      ContextTypeWorldState,
		Key:       worldStateKey,
		Data:      data,
		UpdatedBy: c.sourceID,
	})
	if err != nil {
		c.LogWarn("failed to persist snapshot", "error", err)
	}
}

// significantChange is the predicate gating persistence and broadcast:
// health moved by >= 5 points, the weather category changed, a building or
// entity count changed, or total volume moved by >= 10% relative to the
// previous value (any change away from a zero previous volume counts).
func significantChange(prev, next core.WorldSnapshot) bool {
	if math.Abs(float64(next.Health-prev.Health)) >= healthDelta {
		return true
	}
	if next.Weather != prev.Weather {
		return true
	}
	if next.BuildingCount != prev.BuildingCount || next.EntityCount != prev.EntityCount {
		return true
	}
	if prev.TotalVolume == 0 {
		return next.TotalVolume != 0
	}
	return math.Abs(next.TotalVolume-prev.TotalVolume)/math.Abs(prev.TotalVolume) >= volumeDeltaRatio
}

// StartAutoRefresh runs RefreshWorldState plus a TTL sweep on a fixed period.
// Passing 0 uses the configured RefreshInterval. A no-op when already running.
func (c *Cache) StartAutoRefresh(interval time.Duration) {
	if interval <= 0 {
		interval = c.refreshInterval
	}

	c.mu.Lock()
	if c.refreshStop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	c.refreshStop = stop
	c.refreshDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.RefreshWorldState(context.Background())
				c.SweepExpired()
			}
		}
	}()
}

// StopAutoRefresh stops the refresh timer and waits for the worker to exit.
func (c *Cache) StopAutoRefresh() {
	c.mu.Lock()
	stop, done := c.refreshStop, c.refreshDone
	c.refreshStop, c.refreshDone = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// FormatForPrompt renders the current snapshot as the deterministic text
// block embedded into completion-provider prompts. Field order and rounding
// are a contract other components depend on; change them in lockstep with
// every prompt consumer.
func (c *Cache) FormatForPrompt() string {
	c.mu.RLock()
	snap := c.snapshot
	hasSnapshot := c.hasSnapshot
	c.mu.RUnlock()

	if !hasSnapshot {
		return "World state: unknown (no snapshot available)."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "World status: health %d/100, weather %s.\n", snap.Health, snap.Weather)
	fmt.Fprintf(&sb, "Buildings: %d, entities: %d, total volume: %.1f.", snap.BuildingCount, snap.EntityCount, snap.TotalVolume)
	if len(snap.TopEntities) > 0 {
		sb.WriteString("\nTop entities: ")
		for i, e := range snap.TopEntities {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s (%.1f)", e.Name, e.Score)
		}
		sb.WriteString(".")
	}
	return sb.String()
}
