// Package research gathers best practices for AI coding-assistant
// configurations from curated knowledge topics and, in deep mode, remote
// community sources. All sources are queried through the aggregator so a
// slow or failing source never blocks the pipeline.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mlehotay/confpilot/internal/aggregate"
	"github.com/mlehotay/confpilot/pkg/models"
)

const (
	githubSearchURL = "https://api.github.com/search/repositories"
	officialDocsURL = "https://docs.anthropic.com/en/docs/claude-code"
	userAgent       = "confpilot/1.0"

	// maxRemoteRepos bounds how many community repositories one search
	// contributes.
	maxRemoteRepos = 5
)

// BestPracticesResearcher runs best-practice research across all topics.
type BestPracticesResearcher interface {
	ResearchAll(ctx context.Context, rc models.ResearchContext, deep bool) (*models.ResearchResults, error)
	ResearchTopic(ctx context.Context, topic string, rc models.ResearchContext) (*models.ResearchResults, error)
}

type researcher struct {
	agg    *aggregate.Aggregator
	client *http.Client
}

// NewResearcher creates a BestPracticesResearcher. timeout bounds each
// research invocation as a whole; events may be nil.
func NewResearcher(timeout time.Duration, events aggregate.EventLogger) BestPracticesResearcher {
	return &researcher{
		agg:    aggregate.New(timeout, events),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// ResearchAll queries every curated topic concurrently, plus remote
// community sources in deep mode, and assembles the deduplicated,
// ranked practice list. Remote failures degrade to curated knowledge.
func (r *researcher) ResearchAll(ctx context.Context, rc models.ResearchContext, deep bool) (*models.ResearchResults, error) {
	sources := curatedSources()
	if deep {
		sources = append(sources,
			aggregate.Source{ID: "github-community", Query: r.queryGitHub("claude code configuration")},
			aggregate.Source{ID: "official-docs", Query: r.queryOfficialDocs()},
		)
	}
	return r.collect(ctx, rc, sources), nil
}

// ResearchTopic researches a single curated topic. Unknown topics return
// an empty result rather than an error.
func (r *researcher) ResearchTopic(ctx context.Context, topic string, rc models.ResearchContext) (*models.ResearchResults, error) {
	for _, src := range curatedSources() {
		if src.ID == topic {
			return r.collect(ctx, rc, []aggregate.Source{src}), nil
		}
	}
	return &models.ResearchResults{}, nil
}

// collect fans out over the sources and converts the surviving findings
// back into prioritized practices.
func (r *researcher) collect(ctx context.Context, rc models.ResearchContext, sources []aggregate.Source) *models.ResearchResults {
	result := r.agg.Collect(ctx, sources)

	results := &models.ResearchResults{
		SourcesAnalyzed: len(sources) - len(result.Failures),
	}
	for _, f := range result.Failures {
		results.FailedSources = append(results.FailedSources, f.SourceID)
	}
	for _, finding := range result.Findings {
		results.Practices = append(results.Practices, practiceFromFinding(finding))
	}
	prioritizeForContext(results.Practices, rc)
	return results
}

// queryGitHub returns a QueryFunc that searches GitHub for community
// configuration repositories and reports each as a community practice.
func (r *researcher) queryGitHub(query string) aggregate.QueryFunc {
	return func(ctx context.Context) ([]models.Finding, error) {
		u := fmt.Sprintf("%s?q=%s&sort=stars&per_page=%d", githubSearchURL, url.QueryEscape(query), maxRemoteRepos)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("building search request: %w", err)
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("searching github: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("github search returned %s", resp.Status)
		}

		var payload struct {
			Items []struct {
				FullName    string `json:"full_name"`
				Description string `json:"description"`
				Stars       int    `json:"stargazers_count"`
			} `json:"items"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding search results: %w", err)
		}

		var findings []models.Finding
		for _, repo := range payload.Items {
			confidence := 80 + repo.Stars/200
			if confidence > 90 {
				confidence = 90
			}
			findings = append(findings, models.Finding{
				Source:     "github-community",
				Severity:   models.SeverityMedium,
				Category:   models.CategoryBestPractice,
				Message:    "Community pattern: " + repo.FullName,
				Suggestion: repo.Description,
				Confidence: confidence,
			})
		}
		return findings, nil
	}
}

// queryOfficialDocs returns a QueryFunc that confirms the official
// documentation is reachable and current.
func (r *researcher) queryOfficialDocs() aggregate.QueryFunc {
	return func(ctx context.Context) ([]models.Finding, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, officialDocsURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building docs request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching official docs: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("official docs returned %s", resp.Status)
		}

		return []models.Finding{{
			Source:     "official-docs",
			Severity:   models.SeverityHigh,
			Category:   models.CategoryConfiguration,
			Message:    "Follow the official configuration reference for settings.json structure",
			Suggestion: officialDocsURL,
			Confidence: 95,
		}}, nil
	}
}

// prioritizeForContext boosts practices that match the research context:
// security practices for high-security use cases, and practices that
// mention the user's tech stack.
func prioritizeForContext(practices []models.BestPractice, rc models.ResearchContext) {
	for i := range practices {
		p := &practices[i]

		if rc.SecurityRequirements == "high" && p.Category == models.CategorySecurity {
			p.Priority = models.SeverityCritical
		}

		for _, tech := range rc.TechStack {
			if tech == "" {
				continue
			}
			if containsFold(p.Description, tech) || containsFold(p.Example, tech) {
				p.Priority = boost(p.Priority)
			}
		}
	}
}

// boost raises a priority by one step, saturating at high.
func boost(p models.Severity) models.Severity {
	switch p {
	case models.SeverityLow:
		return models.SeverityMedium
	case models.SeverityMedium:
		return models.SeverityHigh
	default:
		return p
	}
}
