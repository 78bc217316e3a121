package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mlehotay/confpilot/pkg/models"
)

func finding(source, message string, severity models.Severity, confidence int) models.Finding {
	return models.Finding{
		Source:     source,
		Severity:   severity,
		Category:   models.CategorySecurity,
		Message:    message,
		Confidence: confidence,
	}
}

func staticSource(id string, findings []models.Finding) Source {
	return Source{
		ID: id,
		Query: func(context.Context) ([]models.Finding, error) {
			return findings, nil
		},
	}
}

func TestCollect_MergesAllSources(t *testing.T) {
	agg := New(time.Second, nil)

	result := agg.Collect(context.Background(), []Source{
		staticSource("a", []models.Finding{finding("a", "use env secrets", models.SeverityHigh, 90)}),
		staticSource("b", []models.Finding{finding("b", "deny sudo", models.SeverityCritical, 85)}),
	})

	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(result.Findings))
	}
	// Critical ranks before high.
	if result.Findings[0].Message != "deny sudo" {
		t.Fatalf("expected critical finding first, got %q", result.Findings[0].Message)
	}
}

func TestCollect_EmptySources(t *testing.T) {
	agg := New(time.Second, nil)
	result := agg.Collect(context.Background(), nil)
	if len(result.Findings) != 0 || len(result.Failures) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestCollect_FailureIsolation(t *testing.T) {
	agg := New(time.Second, nil)

	result := agg.Collect(context.Background(), []Source{
		staticSource("good", []models.Finding{finding("good", "ok", models.SeverityMedium, 90)}),
		{
			ID: "bad",
			Query: func(context.Context) ([]models.Finding, error) {
				return nil, errors.New("boom")
			},
		},
	})

	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if result.Failures[0].SourceID != "bad" {
		t.Fatalf("expected failure from bad, got %s", result.Failures[0].SourceID)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected the good source's finding, got %d findings", len(result.Findings))
	}
}

func TestCollect_PanicIsSoftFailure(t *testing.T) {
	agg := New(time.Second, nil)

	result := agg.Collect(context.Background(), []Source{
		{
			ID: "panicky",
			Query: func(context.Context) ([]models.Finding, error) {
				panic("oops")
			},
		},
		staticSource("calm", []models.Finding{finding("calm", "fine", models.SeverityLow, 95)}),
	})

	if len(result.Failures) != 1 || result.Failures[0].SourceID != "panicky" {
		t.Fatalf("expected soft failure from panicky, got %v", result.Failures)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
}

func TestCollect_TimeoutAttribution(t *testing.T) {
	agg := New(50*time.Millisecond, nil)

	result := agg.Collect(context.Background(), []Source{
		staticSource("fast", []models.Finding{finding("fast", "quick", models.SeverityMedium, 90)}),
		{
			ID: "slow",
			Query: func(ctx context.Context) ([]models.Finding, error) {
				select {
				case <-time.After(5 * time.Second):
					return []models.Finding{finding("slow", "late", models.SeverityCritical, 99)}, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		},
	})

	if len(result.Findings) != 1 || result.Findings[0].Message != "quick" {
		t.Fatalf("expected only the fast finding, got %v", result.Findings)
	}

	var timedOut bool
	for _, f := range result.Failures {
		if f.SourceID == "slow" {
			timedOut = true
		}
		if f.SourceID == "fast" {
			t.Fatalf("fast source wrongly marked failed: %v", f.Err)
		}
	}
	if !timedOut {
		t.Fatal("expected slow source to be reported as a failure")
	}
}

func TestCollect_ReturnsAtDeadlineDespiteStubbornSource(t *testing.T) {
	agg := New(100*time.Millisecond, nil)

	start := time.Now()
	result := agg.Collect(context.Background(), []Source{
		{
			ID: "stubborn",
			Query: func(context.Context) ([]models.Finding, error) {
				// Ignores cancellation entirely.
				time.Sleep(3 * time.Second)
				return []models.Finding{finding("stubborn", "too late", models.SeverityCritical, 99)}, nil
			},
		},
		staticSource("prompt", []models.Finding{finding("prompt", "on time", models.SeverityMedium, 90)}),
	})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Fatalf("Collect blocked %s on an abandoned worker; expected return near the 100ms timeout", elapsed)
	}
	if len(result.Findings) != 1 || result.Findings[0].Message != "on time" {
		t.Fatalf("expected only the prompt finding, got %v", result.Findings)
	}

	var timedOut bool
	for _, f := range result.Failures {
		if f.SourceID == "stubborn" {
			timedOut = true
		}
	}
	if !timedOut {
		t.Fatalf("expected the stubborn source reported as a timeout, got %v", result.Failures)
	}
}

func TestCollect_ConfidenceThresholdInclusive(t *testing.T) {
	agg := New(time.Second, nil)

	result := agg.Collect(context.Background(), []Source{
		staticSource("s", []models.Finding{
			finding("s", "at threshold", models.SeverityMedium, 80),
			finding("s", "below threshold", models.SeverityMedium, 79),
		}),
	})

	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	if result.Findings[0].Message != "at threshold" {
		t.Fatalf("expected the confidence-80 finding to survive, got %q", result.Findings[0].Message)
	}
}

func TestCollect_CrossValidationBoost(t *testing.T) {
	agg := New(time.Second, nil)

	result := agg.Collect(context.Background(), []Source{
		staticSource("a", []models.Finding{finding("a", "Use environment variables for secrets", models.SeverityHigh, 85)}),
		staticSource("b", []models.Finding{finding("b", "Use environment variables for secrets", models.SeverityHigh, 90)}),
	})

	if len(result.Findings) != 1 {
		t.Fatalf("expected duplicates to merge, got %d findings", len(result.Findings))
	}
	got := result.Findings[0].Confidence
	if got != 90 && got != 95 {
		t.Fatalf("expected first-seen confidence plus boost, got %d", got)
	}
}

func TestCollect_BoostCappedAt99(t *testing.T) {
	agg := New(time.Second, nil)

	sources := make([]Source, 6)
	for i := range sources {
		sources[i] = staticSource(fmt.Sprintf("s%d", i), []models.Finding{
			finding(fmt.Sprintf("s%d", i), "same message everywhere", models.SeverityHigh, 97),
		})
	}

	result := agg.Collect(context.Background(), sources)
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 merged finding, got %d", len(result.Findings))
	}
	if result.Findings[0].Confidence > 99 {
		t.Fatalf("confidence exceeded cap: %d", result.Findings[0].Confidence)
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	agg := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := agg.Collect(ctx, []Source{
		{
			ID: "blocked",
			Query: func(ctx context.Context) ([]models.Finding, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	})

	if len(result.Findings) != 0 {
		t.Fatalf("expected no findings after cancellation, got %d", len(result.Findings))
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) LogEvent(eventType string, _ map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, eventType)
	return nil
}

func (l *recordingLogger) has(eventType string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == eventType {
			return true
		}
	}
	return false
}

func TestCollect_EmitsFailureEvents(t *testing.T) {
	log := &recordingLogger{}
	agg := New(time.Second, log)

	agg.Collect(context.Background(), []Source{
		{
			ID: "bad",
			Query: func(context.Context) ([]models.Finding, error) {
				return nil, errors.New("boom")
			},
		},
	})

	if !log.has("aggregate.source_failed") {
		t.Fatal("expected aggregate.source_failed event")
	}
	if !log.has("aggregate.completed") {
		t.Fatal("expected aggregate.completed event")
	}
}

func TestRank_SeverityThenConfidence(t *testing.T) {
	findings := []models.Finding{
		finding("s", "low conf critical", models.SeverityCritical, 81),
		finding("s", "info", models.SeverityInfo, 99),
		finding("s", "high conf critical", models.SeverityCritical, 95),
		finding("s", "warning", models.SeverityWarning, 90),
	}

	ranked := rank(findings)

	want := []string{"high conf critical", "low conf critical", "warning", "info"}
	for i, msg := range want {
		if ranked[i].Message != msg {
			t.Fatalf("position %d: expected %q, got %q", i, msg, ranked[i].Message)
		}
	}
}
