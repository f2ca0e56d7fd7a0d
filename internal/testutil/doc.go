// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing core model objects (coordination messages,
// dialogue sessions). Not intended for production usage.
package testutil
