// Package dialogue implements the turn-based conversation orchestrator: a
// table of bounded multi-party dialogue sessions with strict speaker-order
// enforcement, plus two response-generation modes that delegate text
// generation to the completion provider: a one-shot scripted multi-turn
// transcript and a single-turn persona reply with best-effort handoff
// extraction.
//
// Provider failures propagate to callers unretried. Transcript parse
// failures degrade to an empty, neutral result rather than an error.
package dialogue
