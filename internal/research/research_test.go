package research

import (
	"context"
	"testing"
	"time"

	"github.com/mlehotay/confpilot/pkg/models"
)

func TestResearchAll_CuratedTopics(t *testing.T) {
	r := NewResearcher(5*time.Second, nil)

	results, err := r.ResearchAll(context.Background(), models.ResearchContext{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results.SourcesAnalyzed != 5 {
		t.Fatalf("expected all 5 curated topics analyzed, got %d", results.SourcesAnalyzed)
	}
	if len(results.FailedSources) != 0 {
		t.Fatalf("curated topics must not fail: %v", results.FailedSources)
	}
	if len(results.Practices) == 0 {
		t.Fatal("expected practices from the curated knowledge base")
	}

	// Critical security practices rank ahead of everything else.
	if results.Practices[0].Priority != models.SeverityCritical {
		t.Fatalf("expected a critical practice first, got %s (%s)",
			results.Practices[0].Priority, results.Practices[0].Title)
	}

	titles := make(map[string]bool)
	for _, p := range results.Practices {
		if titles[p.Title] {
			t.Fatalf("duplicate practice surfaced: %q", p.Title)
		}
		titles[p.Title] = true
	}
	if !titles["Environment-based secret management"] {
		t.Fatal("expected the secret management practice")
	}
}

func TestResearchTopic(t *testing.T) {
	r := NewResearcher(5*time.Second, nil)

	results, err := r.ResearchTopic(context.Background(), "security", models.ResearchContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results.SourcesAnalyzed != 1 {
		t.Fatalf("expected one source analyzed, got %d", results.SourcesAnalyzed)
	}
	for _, p := range results.Practices {
		if p.Category != models.CategorySecurity {
			t.Fatalf("security topic returned %s practice %q", p.Category, p.Title)
		}
	}
}

func TestResearchTopic_Unknown(t *testing.T) {
	r := NewResearcher(time.Second, nil)

	results, err := r.ResearchTopic(context.Background(), "astrology", models.ResearchContext{})
	if err != nil {
		t.Fatalf("unknown topic must not error: %v", err)
	}
	if len(results.Practices) != 0 || results.SourcesAnalyzed != 0 {
		t.Fatalf("expected an empty result, got %+v", results)
	}
}

func TestPrioritizeForContext(t *testing.T) {
	t.Run("high security promotes security practices", func(t *testing.T) {
		practices := []models.BestPractice{
			{Category: models.CategorySecurity, Priority: models.SeverityHigh},
			{Category: models.CategoryWorkflow, Priority: models.SeverityHigh},
		}
		prioritizeForContext(practices, models.ResearchContext{SecurityRequirements: "high"})

		if practices[0].Priority != models.SeverityCritical {
			t.Fatalf("security practice not promoted: %s", practices[0].Priority)
		}
		if practices[1].Priority != models.SeverityHigh {
			t.Fatalf("workflow practice should be untouched: %s", practices[1].Priority)
		}
	})

	t.Run("tech stack match boosts priority", func(t *testing.T) {
		practices := []models.BestPractice{
			{Description: "Run golangci-lint after edits", Priority: models.SeverityMedium},
			{Description: "Unrelated practice", Priority: models.SeverityMedium},
		}
		prioritizeForContext(practices, models.ResearchContext{TechStack: []string{"Golangci-Lint"}})

		if practices[0].Priority != models.SeverityHigh {
			t.Fatalf("matching practice not boosted: %s", practices[0].Priority)
		}
		if practices[1].Priority != models.SeverityMedium {
			t.Fatalf("non-matching practice changed: %s", practices[1].Priority)
		}
	})
}

func TestBoost_SaturatesAtHigh(t *testing.T) {
	cases := []struct{ in, want models.Severity }{
		{models.SeverityLow, models.SeverityMedium},
		{models.SeverityMedium, models.SeverityHigh},
		{models.SeverityHigh, models.SeverityHigh},
		{models.SeverityCritical, models.SeverityCritical},
	}
	for _, tc := range cases {
		if got := boost(tc.in); got != tc.want {
			t.Errorf("boost(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPracticeFromFinding(t *testing.T) {
	t.Run("curated practice is rehydrated", func(t *testing.T) {
		original := curatedKnowledge["security"][0]
		finding := findingFromPractice("security", original)
		finding.Confidence = 99 // cross-validation boost survives

		p := practiceFromFinding(finding)
		if p.Title != original.Title || p.Rationale != original.Rationale {
			t.Fatalf("rehydrated practice lost fields: %+v", p)
		}
		if p.Confidence != 99 {
			t.Fatalf("boosted confidence not carried: %d", p.Confidence)
		}
	})

	t.Run("remote finding is synthesized", func(t *testing.T) {
		finding := models.Finding{
			Source:     "github-community",
			Severity:   models.SeverityMedium,
			Category:   models.CategoryBestPractice,
			Message:    "Community pattern: someone/config-repo",
			Suggestion: "A popular configuration layout",
			Confidence: 84,
		}

		p := practiceFromFinding(finding)
		if p.Title != finding.Message || p.Priority != models.SeverityMedium {
			t.Fatalf("synthesized practice wrong: %+v", p)
		}
		if len(p.Sources) != 1 || p.Sources[0] != "github-community" {
			t.Fatalf("source attribution missing: %v", p.Sources)
		}
	})
}
