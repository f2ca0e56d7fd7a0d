package core

import (
	"encoding/json"
	"fmt"
)

// PayloadKind discriminates the closed set of coordination payloads.
type PayloadKind string

const (
	// KindHeartbeat announces an agent's presence and capabilities.
	KindHeartbeat PayloadKind = "heartbeat"
	// KindMention routes a user mention of an agent toward the orchestrator.
	KindMention PayloadKind = "mention"
	// KindDialogue carries dialogue session lifecycle updates.
	KindDialogue PayloadKind = "dialogue"
	// KindWorldUpdate carries a significant world snapshot change.
	KindWorldUpdate PayloadKind = "world_update"
	// KindEvent carries a newly buffered world event.
	KindEvent PayloadKind = "event"
	// KindText is a free-form text payload for ad-hoc agent chatter.
	KindText PayloadKind = "text"
)

// Payload is the polymorphic body of a CoordinationMessage. Concrete payload
// types implement Kind, enabling a closed set that delivery boundaries match
// exhaustively instead of sniffing a sibling type string.
type Payload interface{ Kind() PayloadKind }

// HeartbeatPayload announces an agent joining the mesh.
type HeartbeatPayload struct {
	AgentID      string      `json:"agent_id"`
	Name         string      `json:"name,omitempty"`
	Status       AgentStatus `json:"status"`
	Capabilities []string    `json:"capabilities,omitempty"`
}

// Kind implements Payload for HeartbeatPayload.
func (HeartbeatPayload) Kind() PayloadKind { return KindHeartbeat }

// MentionPayload describes a detected mention of an agent in user text.
type MentionPayload struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Text      string `json:"text"`
}

// Kind implements Payload for MentionPayload.
func (MentionPayload) Kind() PayloadKind { return KindMention }

// DialoguePayload is broadcast when a dialogue session starts or advances.
type DialoguePayload struct {
	SessionID      string   `json:"session_id"`
	Topic          string   `json:"topic"`
	Participants   []string `json:"participants"`
	CurrentSpeaker string   `json:"current_speaker"`
	Turn           int      `json:"turn"`
	LastSpeaker    string   `json:"last_speaker,omitempty"`
	LastMessage    string   `json:"last_message,omitempty"`
}

// Kind implements Payload for DialoguePayload.
func (DialoguePayload) Kind() PayloadKind { return KindDialogue }

// WorldUpdatePayload carries the snapshot that passed the significance check.
type WorldUpdatePayload struct {
	Snapshot WorldSnapshot `json:"snapshot"`
}

// Kind implements Payload for WorldUpdatePayload.
func (WorldUpdatePayload) Kind() PayloadKind { return KindWorldUpdate }

// EventPayload carries a newly observed world event.
type EventPayload struct {
	Event RecentEvent `json:"event"`
}

// Kind implements Payload for EventPayload.
func (EventPayload) Kind() PayloadKind { return KindEvent }

// TextPayload is a free-form text body.
type TextPayload struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Kind implements Payload for TextPayload.
func (TextPayload) Kind() PayloadKind { return KindText }

// payloadEnvelope is the wire form used when payloads cross a process
// boundary through the durable store.
type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalPayload serializes a payload into its kind-tagged envelope.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("marshal payload: nil payload")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload %q: %w", p.Kind(), err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Data: data})
}

// UnmarshalPayload decodes a kind-tagged envelope back into its concrete
// payload type. Unknown kinds are an error so that schema drift between
// cooperating processes surfaces instead of being silently dropped.
func UnmarshalPayload(raw []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal payload envelope: %w", err)
	}
	var p Payload
	switch env.Kind {
	case KindHeartbeat:
		p = &HeartbeatPayload{}
	case KindMention:
		p = &MentionPayload{}
	case KindDialogue:
		p = &DialoguePayload{}
	case KindWorldUpdate:
		p = &WorldUpdatePayload{}
	case KindEvent:
		p = &EventPayload{}
	case KindText:
		p = &TextPayload{}
	default:
		return nil, fmt.Errorf("unmarshal payload: unknown kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, fmt.Errorf("unmarshal payload %q: %w", env.Kind, err)
	}
	switch v := p.(type) {
	case *HeartbeatPayload:
		return *v, nil
	case *MentionPayload:
		return *v, nil
	case *DialoguePayload:
		return *v, nil
	case *WorldUpdatePayload:
		return *v, nil
	case *EventPayload:
		return *v, nil
	case *TextPayload:
		return *v, nil
	}
	return p, nil
}
