// Package cache implements the shared context cache: a process-wide world
// snapshot refreshed from a live provider with change-significance gating, a
// bounded ring buffer of recent world events, and a generic keyed TTL store
// backed by the durable core.Store. Significant updates and new events are
// published to other agents through the bus.
//
// The cache decouples "always-current read" from "notify on meaningful
// change only": every successful refresh replaces the in-memory snapshot,
// but persistence and broadcast happen only when the significance predicate
// holds, limiting bus and storage pressure.
package cache
