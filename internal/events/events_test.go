package events

import (
	"strings"
	"testing"
	"time"
)

func TestNewStampsTimestamp(t *testing.T) {
	before := time.Now().UTC()
	e := New(KindExpense, OpCreated, "rec-1", "fam-1")
	after := time.Now().UTC()

	if e.Kind != KindExpense || e.Op != OpCreated || e.RecordID != "rec-1" || e.FamilyID != "fam-1" {
		t.Fatalf("event = %+v", e)
	}
	if e.Timestamp.Before(before) || e.Timestamp.After(after) {
		t.Fatalf("timestamp %v outside [%v, %v]", e.Timestamp, before, after)
	}
}

func TestEventWireRoundTrip(t *testing.T) {
	sent := New(KindDebt, OpRepaid, "debt-9", "fam-2")

	body, err := sent.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, key := range []string{`"kind"`, `"op"`, `"recordId"`, `"familyId"`, `"timestamp"`} {
		if !strings.Contains(string(body), key) {
			t.Fatalf("body %s missing %s", body, key)
		}
	}

	got, err := FromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Kind != sent.Kind || got.Op != sent.Op || got.RecordID != sent.RecordID || got.FamilyID != sent.FamilyID {
		t.Fatalf("round trip = %+v, want %+v", got, sent)
	}
	if !got.Timestamp.Equal(sent.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, sent.Timestamp)
	}
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	if _, err := FromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
