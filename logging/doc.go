// Package logging provides a minimal logging interface and adapters for CrossTalk.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the bus, cache and orchestrator use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - CrossTalkLogger with contextual helpers (component, agent, session)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := crosstalk.New(func(o *crosstalk.Options) { o.Logger = logger })
//
package logging
