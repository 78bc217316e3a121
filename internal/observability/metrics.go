package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	RunsStarted      int            `json:"runs_started"`
	RunsCompleted    int            `json:"runs_completed"`
	RunsFailed       int            `json:"runs_failed"`
	StagesCompleted  map[string]int `json:"stages_completed"`
	StagesSkipped    int            `json:"stages_skipped"`
	SourceFailures   int            `json:"source_failures"`
	FilesWritten     int            `json:"files_written"`
	ReviewFindings   int            `json:"review_findings"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		StagesCompleted: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "pipeline.run_started":
			m.RunsStarted++
		case "pipeline.run_completed":
			m.RunsCompleted++
		case "pipeline.run_failed":
			m.RunsFailed++
		case "pipeline.stage_completed":
			if stage, ok := event.Data["stage"].(string); ok {
				m.StagesCompleted[stage]++
			}
		case "pipeline.stage_skipped":
			m.StagesSkipped++
		case "aggregate.source_failed", "aggregate.source_timeout":
			m.SourceFailures++
		case "write.files_written":
			if n, ok := event.Data["count"].(float64); ok {
				m.FilesWritten += int(n)
			}
		case "review.completed":
			if n, ok := event.Data["issues"].(float64); ok {
				m.ReviewFindings += int(n)
			}
		}
	}

	return m, nil
}
