// Package model defines the text-completion collaborator contract used by the
// dialogue orchestrator, plus a deterministic MockModel for tests. Concrete
// provider adapters live in the openai and anthropic sub-packages; select one
// at wiring time and depend only on model.Model in calling code.
//
// The contract is deliberately narrow: a system/persona instruction plus a
// role-tagged message history in, generated text out. No streaming is
// consumed and no tool calling is exposed; callers that want a timeout wrap
// the context themselves.
package model
