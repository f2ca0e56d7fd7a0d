package core

import "testing"

func TestDialogueSession_TurnCycle(t *testing.T) {
	s := NewDialogueSession("s1", "weather", []string{"a", "b", "c"}, "a", 4)
	if s.CurrentSpeaker != "a" {
		t.Fatalf("initiator should speak first, got %q", s.CurrentSpeaker)
	}

	if !s.Append("a", "hello") {
		t.Fatal("initiator's turn should be accepted")
	}
	if s.CurrentSpeaker != "b" {
		t.Errorf("speaker should advance to b, got %q", s.CurrentSpeaker)
	}

	// Out-of-turn speakers are rejected without mutating anything.
	if s.Append("a", "me again") {
		t.Error("out-of-turn speaker should be rejected")
	}
	if s.Turn != 1 || len(s.Transcript) != 1 {
		t.Errorf("rejected turn must not mutate session: turn=%d transcript=%d", s.Turn, len(s.Transcript))
	}

	s.Append("b", "hi")
	s.Append("c", "hey")
	if s.CurrentSpeaker != "a" {
		t.Errorf("speaker order should wrap around to a, got %q", s.CurrentSpeaker)
	}

	s.Append("a", "last word")
	if !s.Complete() {
		t.Error("session should be complete at max turns")
	}
	if s.Append("b", "too late") {
		t.Error("turns past the cap should be rejected")
	}
}

func TestDialogueSession_SnapshotAndClone(t *testing.T) {
	s := NewDialogueSession("s1", "weather", []string{"a", "b"}, "a", 4)
	s.Append("a", "hello")

	p := s.Snapshot()
	if p.SessionID != "s1" || p.Turn != 1 || p.LastSpeaker != "a" || p.LastMessage != "hello" {
		t.Errorf("unexpected snapshot: %+v", p)
	}
	p.Participants[0] = "mutated"
	if s.Participants[0] != "a" {
		t.Error("snapshot should not share the participants slice")
	}

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}
	clone.Transcript[0].Message = "changed"
	if s.Transcript[0].Message != "hello" {
		t.Error("original should not see clone's transcript mutation")
	}
}
