// Package bus implements the coordination message router: an agent registry,
// a positionally ordered priority queue with a single-drain guard, handler
// dispatch with broadcast fan-out, mention detection over inbound user text
// and a polling bridge that exchanges durable messages with cooperating
// processes through a core.Store.
//
// Delivery guarantees are intentionally modest: in-process delivery is
// ordered per the queue's priority rule, cross-process delivery is
// at-least-once and eventually consistent. Handlers that care about
// duplicates across processes must be written idempotently.
package bus
