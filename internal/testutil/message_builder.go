package testutil

import (
	"time"

	"github.com/hupe1980/crosstalk/core"
)

// MessageBuilder provides a fluent helper for constructing coordination
// messages in tests. Example:
//
//	msg := NewMessageBuilder().From("npc-1").To("npc-2").Text("hello").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id       string
	from     string
	to       string
	priority core.Priority
	payload  core.Payload
	replyTo  string
	expires  *time.Time
}

// NewMessageBuilder creates a builder with default sender "test-agent" and a
// normal-priority empty text payload.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{from: "test-agent", priority: core.PriorityNormal, payload: core.TextPayload{}}
}

// ID overrides the auto-generated message ID (chainable). Use mainly in tests
// where determinism matters.
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// From sets the sender agent ID (chainable).
func (b *MessageBuilder) From(id string) *MessageBuilder { b.from = id; return b }

// To sets the recipient agent ID; leave unset for a broadcast (chainable).
func (b *MessageBuilder) To(id string) *MessageBuilder { b.to = id; return b }

// Priority sets the message priority (chainable).
func (b *MessageBuilder) Priority(p core.Priority) *MessageBuilder { b.priority = p; return b }

// Payload sets an arbitrary payload (chainable).
func (b *MessageBuilder) Payload(p core.Payload) *MessageBuilder { b.payload = p; return b }

// Text sets a plain text payload (chainable).
func (b *MessageBuilder) Text(text string) *MessageBuilder {
	b.payload = core.TextPayload{Text: text}
	return b
}

// Mention sets a mention payload targeting the given agent (chainable).
func (b *MessageBuilder) Mention(agentID, agentName, text string) *MessageBuilder {
	b.payload = core.MentionPayload{AgentID: agentID, AgentName: agentName, Text: text}
	return b
}

// ReplyTo marks the message as a reply to another message ID (chainable).
func (b *MessageBuilder) ReplyTo(id string) *MessageBuilder { b.replyTo = id; return b }

// ExpiresAt sets an expiry deadline on the message (chainable).
func (b *MessageBuilder) ExpiresAt(t time.Time) *MessageBuilder { b.expires = &t; return b }

// Build returns the assembled coordination message.
func (b *MessageBuilder) Build() core.CoordinationMessage {
	msg := core.NewMessage(b.from, b.to, b.payload, b.priority)
	if b.id != "" {
		msg.ID = b.id
	}
	msg.ReplyTo = b.replyTo
	msg.ExpiresAt = b.expires
	return msg
}
