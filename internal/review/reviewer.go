// Package review runs generated configurations past external language
// models and merges their findings. Each reviewer is one aggregator
// source, so a slow or failing model degrades the review instead of
// blocking it.
package review

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mlehotay/confpilot/internal/aggregate"
	"github.com/mlehotay/confpilot/pkg/models"
)

// maxConfigChars bounds how much configuration text goes into a prompt.
const maxConfigChars = 10_000

const reviewPrompt = `You are an expert Claude Code configuration reviewer.

Review the following configuration for:
1. **Security issues** - Permissions too broad, missing denials, exposed secrets
2. **Best practice violations** - Missing patterns, anti-patterns
3. **Missing components** - Essential elements not present
4. **Improvement opportunities** - Ways to enhance effectiveness

Respond with ONLY valid JSON (no markdown code blocks):
{"issues": [{"severity": "critical|high|medium|low", "category": "security|best_practice|missing|improvement", "message": "description under 100 chars", "suggestion": "fix under 100 chars", "file": "filename if applicable", "confidence": 85}]}

Only include findings with confidence >= 80.

CONFIGURATION TO REVIEW:
`

// ModelClient sends one prompt to one language model.
type ModelClient interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ConfigReviewer reviews configurations with multiple models.
type ConfigReviewer interface {
	Review(ctx context.Context, files []models.GeneratedFile, answers *models.QuestionnaireAnswers) ([]models.Finding, error)
}

type configReviewer struct {
	agg     *aggregate.Aggregator
	clients []ModelClient
}

// NewConfigReviewer creates a reviewer over the given model clients.
// timeout bounds the whole review; events may be nil.
func NewConfigReviewer(clients []ModelClient, timeout time.Duration, events aggregate.EventLogger) ConfigReviewer {
	return &configReviewer{
		agg:     aggregate.New(timeout, events),
		clients: clients,
	}
}

// ClientsFromConfig builds model clients for every configured reviewer
// whose API key is present in the environment. Reviewers without keys
// are silently left out.
func ClientsFromConfig(reviewers []models.ReviewerConfig) []ModelClient {
	var clients []ModelClient
	for _, rc := range reviewers {
		key := os.Getenv(rc.KeyEnv)
		if key == "" {
			continue
		}
		switch {
		case strings.Contains(strings.ToLower(rc.Name), "gemini"):
			clients = append(clients, NewGeminiClient(rc.Name, rc.Model, key))
		default:
			clients = append(clients, NewOpenAIClient(rc.Name, rc.Model, key))
		}
	}
	return clients
}

// Review fans the configuration out to every client and returns the
// merged findings. No clients means no review, not an error.
func (r *configReviewer) Review(ctx context.Context, files []models.GeneratedFile, answers *models.QuestionnaireAnswers) ([]models.Finding, error) {
	if len(r.clients) == 0 {
		return nil, nil
	}

	configText := buildConfigText(files, answers)
	prompt := reviewPrompt + configText

	sources := make([]aggregate.Source, 0, len(r.clients))
	for _, client := range r.clients {
		client := client
		sources = append(sources, aggregate.Source{
			ID: client.Name(),
			Query: func(ctx context.Context) ([]models.Finding, error) {
				response, err := client.Complete(ctx, prompt)
				if err != nil {
					return nil, fmt.Errorf("querying %s: %w", client.Name(), err)
				}
				return parseIssues(response, client.Name()), nil
			},
		})
	}

	result := r.agg.Collect(ctx, sources)
	return result.Findings, nil
}

// buildConfigText summarizes the configuration for the review prompt:
// key answers plus the primary files, truncated to the prompt budget.
func buildConfigText(files []models.GeneratedFile, answers *models.QuestionnaireAnswers) string {
	var sb strings.Builder

	if answers != nil {
		fmt.Fprintf(&sb, "Configuration: %s\n", answers.ConfigName)
		fmt.Fprintf(&sb, "Key settings:\n")
		fmt.Fprintf(&sb, "  - security_level: %s\n", answers.SecurityLevel)
		fmt.Fprintf(&sb, "  - autonomy_level: %s\n", answers.AutonomyLevel)
		fmt.Fprintf(&sb, "  - enable_multi_model: %t\n", answers.EnableMultiModel)
		fmt.Fprintf(&sb, "  - enable_memory: %t\n", answers.EnableMemory)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Files generated: %d\n\n", len(files))
	for _, f := range files {
		if f.Path != "CLAUDE.md" && !strings.HasSuffix(f.Path, "settings.json") && f.Path != "models.json" {
			continue
		}
		content := f.Content
		if len(content) > 2000 {
			content = content[:2000]
		}
		fmt.Fprintf(&sb, "=== %s ===\n%s\n\n", f.Path, content)
	}

	text := sb.String()
	if len(text) > maxConfigChars {
		text = text[:maxConfigChars]
	}
	return text
}
