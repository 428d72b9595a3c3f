package provider

import (
	"testing"
	"time"
)

func TestRecordInteraction_LastWriterWins(t *testing.T) {
	RecordInteraction(Interaction{Provider: "openai", Request: "first"})
	RecordInteraction(Interaction{Provider: "gemini", Request: "second", Response: "ok"})

	got, ok := LastInteraction()
	if !ok {
		t.Fatal("no interaction recorded")
	}
	if got.Provider != "gemini" || got.Request != "second" {
		t.Errorf("interaction = %+v, want the most recent one", got)
	}
}

func TestRecordInteraction_FillsTimestamp(t *testing.T) {
	before := time.Now()
	RecordInteraction(Interaction{Provider: "openai", Request: "payload"})

	got, _ := LastInteraction()
	if got.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want at or after %v", got.Timestamp, before)
	}
}

func TestRecordInteraction_KeepsExplicitTimestamp(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	RecordInteraction(Interaction{Provider: "openai", Request: "payload", Timestamp: fixed})

	got, _ := LastInteraction()
	if !got.Timestamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, fixed)
	}
}
