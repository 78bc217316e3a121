package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/mlehotay/confpilot/pkg/models"
)

var severityGen = rapid.SampledFrom([]models.Severity{
	models.SeverityCritical, models.SeverityHigh, models.SeverityMedium,
	models.SeverityLow, models.SeverityWarning, models.SeveritySuggestion,
	models.SeverityInfo,
})

func findingGen() *rapid.Generator[models.Finding] {
	return rapid.Custom(func(rt *rapid.T) models.Finding {
		return models.Finding{
			Source:     rapid.StringMatching(`src-[a-z]{1,5}`).Draw(rt, "source"),
			Severity:   severityGen.Draw(rt, "severity"),
			Category:   models.CategorySecurity,
			Message:    rapid.StringMatching(`[a-z ]{1,80}`).Draw(rt, "message"),
			Confidence: rapid.IntRange(0, 99).Draw(rt, "confidence"),
		}
	})
}

// Dedupe over an already-deduplicated slice must be the identity.
func TestProperty_DedupeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		findings := rapid.SliceOfN(findingGen(), 0, 30).Draw(rt, "findings")

		once := dedupe(findings)
		twice := dedupe(append([]models.Finding(nil), once...))

		if len(once) != len(twice) {
			t.Fatalf("second dedupe changed length: %d -> %d", len(once), len(twice))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Fatalf("second dedupe changed finding %d: %+v vs %+v", i, once[i], twice[i])
			}
		}
	})
}

// Every finding Collect returns meets the confidence floor and is ordered
// by severity rank, with confidence descending within equal rank.
func TestProperty_CollectOutputOrderedAndFiltered(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		perSource := rapid.SliceOfN(rapid.SliceOfN(findingGen(), 0, 10), 1, 5).Draw(rt, "perSource")

		sources := make([]Source, len(perSource))
		for i, fs := range perSource {
			sources[i] = staticSource(fmt.Sprintf("s%d", i), fs)
		}

		agg := New(5*time.Second, nil)
		result := agg.Collect(context.Background(), sources)

		for i, f := range result.Findings {
			if f.Confidence < MinConfidence {
				t.Fatalf("finding %d below confidence floor: %d", i, f.Confidence)
			}
			if i == 0 {
				continue
			}
			prev := result.Findings[i-1]
			if prev.Severity.Rank() > f.Severity.Rank() {
				t.Fatalf("severity order violated at %d: %s after %s", i, f.Severity, prev.Severity)
			}
			if prev.Severity.Rank() == f.Severity.Rank() && prev.Confidence < f.Confidence {
				t.Fatalf("confidence order violated at %d: %d after %d", i, f.Confidence, prev.Confidence)
			}
		}
	})
}

// Failing K of N sources never suppresses the surviving sources' findings
// and produces exactly K failures.
func TestProperty_FailureIsolation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		failMask := rapid.SliceOfN(rapid.Bool(), n, n).Draw(rt, "failMask")

		var wantFailures int
		sources := make([]Source, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("s%d", i)
			if failMask[i] {
				wantFailures++
				sources[i] = Source{ID: id, Query: func(context.Context) ([]models.Finding, error) {
					return nil, errors.New("down")
				}}
			} else {
				msg := fmt.Sprintf("unique finding from %s", id)
				sources[i] = staticSource(id, []models.Finding{{
					Source: id, Severity: models.SeverityMedium,
					Category: models.CategorySecurity, Message: msg, Confidence: 90,
				}})
			}
		}

		agg := New(5*time.Second, nil)
		result := agg.Collect(context.Background(), sources)

		if len(result.Failures) != wantFailures {
			t.Fatalf("expected %d failures, got %d", wantFailures, len(result.Failures))
		}
		if len(result.Findings) != n-wantFailures {
			t.Fatalf("expected %d findings, got %d", n-wantFailures, len(result.Findings))
		}
	})
}
