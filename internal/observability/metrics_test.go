package observability

import (
	"errors"
	"testing"
	"time"
)

// memEventLog serves canned events without touching the filesystem.
type memEventLog struct {
	events []Event
	err    error
}

func (l *memEventLog) Write(event Event) error {
	l.events = append(l.events, event)
	return nil
}

func (l *memEventLog) Read(filter EventFilter) ([]Event, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []Event
	for _, e := range l.events {
		if matchesEventFilter(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memEventLog) Close() error { return nil }

func TestCalculate_CountsEventTypes(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	log := &memEventLog{events: []Event{
		{Time: at(0), Type: "pipeline.run_started"},
		{Time: at(1), Type: "pipeline.stage_completed", Data: map[string]any{"stage": "setup"}},
		{Time: at(2), Type: "pipeline.stage_completed", Data: map[string]any{"stage": "generation"}},
		{Time: at(3), Type: "pipeline.stage_completed", Data: map[string]any{"stage": "generation"}},
		{Time: at(4), Type: "pipeline.stage_skipped", Data: map[string]any{"stage": "research"}},
		{Time: at(5), Type: "aggregate.source_failed", Data: map[string]any{"source": "github-community"}},
		{Time: at(6), Type: "aggregate.source_timeout", Data: map[string]any{"source": "official-docs"}},
		// JSON decoding turns numbers into float64, so Data carries floats.
		{Time: at(7), Type: "write.files_written", Data: map[string]any{"count": float64(6)}},
		{Time: at(8), Type: "review.completed", Data: map[string]any{"issues": float64(3)}},
		{Time: at(9), Type: "pipeline.run_completed"},
		{Time: at(10), Type: "pipeline.run_failed"},
	}}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.RunsStarted != 1 || m.RunsCompleted != 1 || m.RunsFailed != 1 {
		t.Fatalf("run counts wrong: %+v", m)
	}
	if m.StagesCompleted["generation"] != 2 || m.StagesCompleted["setup"] != 1 {
		t.Fatalf("stage counts wrong: %v", m.StagesCompleted)
	}
	if m.StagesSkipped != 1 {
		t.Fatalf("skipped count wrong: %d", m.StagesSkipped)
	}
	if m.SourceFailures != 2 {
		t.Fatalf("failures and timeouts should both count: %d", m.SourceFailures)
	}
	if m.FilesWritten != 6 || m.ReviewFindings != 3 {
		t.Fatalf("data-carrying counts wrong: files=%d findings=%d", m.FilesWritten, m.ReviewFindings)
	}
	if m.EventCount != 11 {
		t.Fatalf("event count wrong: %d", m.EventCount)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(at(0)) {
		t.Fatalf("oldest event wrong: %v", m.OldestEvent)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(at(10)) {
		t.Fatalf("newest event wrong: %v", m.NewestEvent)
	}
}

func TestCalculate_SinceFiltersOldEvents(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	log := &memEventLog{events: []Event{
		{Time: base, Type: "pipeline.run_started"},
		{Time: base.Add(time.Hour), Type: "pipeline.run_started"},
	}}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(30 * time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RunsStarted != 1 || m.EventCount != 1 {
		t.Fatalf("since filter not applied: %+v", m)
	}
}

func TestCalculate_EmptyLog(t *testing.T) {
	m, err := NewMetricsCalculator(&memEventLog{}).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Fatalf("empty log should yield zero metrics: %+v", m)
	}
	if m.StagesCompleted == nil {
		t.Fatal("stage map should be initialized")
	}
}

func TestCalculate_ReadErrorPropagates(t *testing.T) {
	log := &memEventLog{err: errors.New("disk gone")}
	if _, err := NewMetricsCalculator(log).Calculate(time.Time{}); err == nil {
		t.Fatal("expected read error to propagate")
	}
}
