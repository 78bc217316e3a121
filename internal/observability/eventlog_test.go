package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func event(eventType string, at time.Time) Event {
	return Event{Time: at, Level: "INFO", Type: eventType, Message: eventType}
}

func TestEventLog_WriteReadRoundTrip(t *testing.T) {
	log, _ := newTestLog(t)
	now := time.Now().UTC().Truncate(time.Second)

	wrote := Event{
		Time:    now,
		Level:   "WARN",
		Type:    "aggregate.source_failed",
		Message: "source failed",
		Data:    map[string]any{"source": "github-community"},
	}
	if err := log.Write(wrote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Type != wrote.Type || got.Level != wrote.Level || !got.Time.Equal(wrote.Time) {
		t.Fatalf("event fields lost: %+v", got)
	}
	if got.Data["source"] != "github-community" {
		t.Fatalf("event data lost: %v", got.Data)
	}
}

func TestEventLog_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Write(event("pipeline.run_started", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = second.Close() }()
	if err := second.Write(event("pipeline.run_completed", time.Now())); err != nil {
		t.Fatal(err)
	}

	events, err := second.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected both events to survive reopen, got %d", len(events))
	}
}

func TestEventLog_ReadFilters(t *testing.T) {
	log, _ := newTestLog(t)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	old := event("pipeline.run_started", base)
	recent := event("pipeline.run_completed", base.Add(time.Hour))
	warn := event("aggregate.source_failed", base.Add(2*time.Hour))
	warn.Level = "WARN"
	for _, e := range []Event{old, recent, warn} {
		if err := log.Write(e); err != nil {
			t.Fatal(err)
		}
	}

	since := base.Add(30 * time.Minute)
	events, err := log.Read(EventFilter{Since: &since})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("since filter: expected 2 events, got %d", len(events))
	}

	until := base.Add(90 * time.Minute)
	events, _ = log.Read(EventFilter{Until: &until})
	if len(events) != 2 {
		t.Fatalf("until filter: expected 2 events, got %d", len(events))
	}

	events, _ = log.Read(EventFilter{Type: "pipeline.run_completed"})
	if len(events) != 1 || events[0].Type != "pipeline.run_completed" {
		t.Fatalf("type filter: got %+v", events)
	}

	events, _ = log.Read(EventFilter{Level: "WARN"})
	if len(events) != 1 || events[0].Type != "aggregate.source_failed" {
		t.Fatalf("level filter: got %+v", events)
	}
}

func TestEventLog_ReadSkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)
	if err := log.Write(event("pipeline.run_started", time.Now())); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{truncated garbage\n\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if err := log.Write(event("pipeline.run_completed", time.Now())); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected malformed lines skipped, got %d events", len(events))
	}
}
