// Package store houses concrete implementations of the core.Store durable
// persistence contract. The interface itself (and the record types) live in
// the core package to centralize domain contracts. Keeping only
// implementations here prevents higher level packages (bus, cache) from
// depending on concrete storage.
//
// The in-memory store below suits tests and single-process deployments; the
// sqlite sub-package provides the durable backend that cooperating processes
// share through the polling bridge. Add additional backends (Postgres,
// Redis, etc.) in sub-packages without changing any calling code; only the
// wiring layer needs to decide which implementation to instantiate.
package store
