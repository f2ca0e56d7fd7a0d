package core

import (
	"testing"
	"time"
)

func TestPayloadEnvelope_RoundTrip(t *testing.T) {
	payloads := []Payload{
		HeartbeatPayload{AgentID: "npc-1", Name: "Neo", Status: AgentStatusReady, Capabilities: []string{"chat"}},
		MentionPayload{AgentID: "npc-1", AgentName: "Neo", Text: "hey neo"},
		TextPayload{Text: "hello", Metadata: map[string]any{"k": "v"}},
		WorldUpdatePayload{Snapshot: WorldSnapshot{Health: 80, Weather: "rain"}},
		EventPayload{Event: RecentEvent{ID: "ev-1", Type: "building_placed"}},
		DialoguePayload{SessionID: "s1", Topic: "weather", Participants: []string{"a", "b"}, CurrentSpeaker: "b", Turn: 1},
	}

	for _, p := range payloads {
		raw, err := MarshalPayload(p)
		if err != nil {
			t.Fatalf("marshal %s: %v", p.Kind(), err)
		}
		decoded, err := UnmarshalPayload(raw)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", p.Kind(), err)
		}
		if decoded.Kind() != p.Kind() {
			t.Errorf("kind mismatch: sent %s, got %s", p.Kind(), decoded.Kind())
		}
	}
}

func TestPayloadEnvelope_PreservesFields(t *testing.T) {
	raw, err := MarshalPayload(MentionPayload{AgentID: "npc-1", AgentName: "Neo", Text: "hey neo, how is the weather?"})
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalPayload(raw)
	if err != nil {
		t.Fatal(err)
	}
	mention, ok := decoded.(MentionPayload)
	if !ok {
		t.Fatalf("expected MentionPayload, got %T", decoded)
	}
	if mention.AgentID != "npc-1" || mention.Text != "hey neo, how is the weather?" {
		t.Errorf("fields lost in transit: %+v", mention)
	}
}

func TestUnmarshalPayload_UnknownKind(t *testing.T) {
	if _, err := UnmarshalPayload([]byte(`{"kind":"bogus","data":{}}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := UnmarshalPayload([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed envelope")
	}
}

func TestMessage_BroadcastAndExpiry(t *testing.T) {
	msg := NewMessage("a", "", TextPayload{Text: "hi"}, "")
	if !msg.IsBroadcast() {
		t.Error("empty recipient should be a broadcast")
	}
	if msg.Priority != PriorityNormal {
		t.Errorf("empty priority should default to normal, got %s", msg.Priority)
	}
	if msg.ID == "" {
		t.Error("message should get a generated id")
	}

	if msg.IsExpired(time.Now()) {
		t.Error("message without deadline must never expire")
	}
	deadline := time.Now().Add(-time.Second)
	msg.ExpiresAt = &deadline
	if !msg.IsExpired(time.Now()) {
		t.Error("message past its deadline should be expired")
	}
}
