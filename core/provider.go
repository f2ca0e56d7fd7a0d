package core

import "context"

// WorldState is the raw result of a live world-state fetch: the snapshot plus
// any events observed since the previous fetch.
type WorldState struct {
	Snapshot WorldSnapshot
	Events   []RecentEvent
}

// WorldProvider fetches live external world state on demand. Fetch is a
// network suspension point; implementations should respect ctx cancellation.
type WorldProvider interface {
	Fetch(ctx context.Context) (WorldState, error)
}
