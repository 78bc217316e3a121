package research

import (
	"context"
	"strings"

	"github.com/mlehotay/confpilot/internal/aggregate"
	"github.com/mlehotay/confpilot/pkg/models"
)

// curatedKnowledge is the built-in knowledge base, grouped by topic.
// Each topic becomes one aggregator source, so topic queries run
// concurrently and are individually failure-isolated.
var curatedKnowledge = map[string][]models.BestPractice{
	"security": {
		{
			Category:    models.CategorySecurity,
			Title:       "Environment-based secret management",
			Description: "Store all API keys and secrets in environment variables, never in code or config files",
			Rationale:   "Prevents accidental exposure through version control, logs, or config sharing",
			Example:     "source ~/.secrets/load.sh",
			AntiPattern: "api_key: 'sk-xxx...' hardcoded in a config file",
			Sources:     []string{"OWASP Secure Coding"},
			Priority:    models.SeverityCritical,
			Confidence:  98,
		},
		{
			Category:    models.CategorySecurity,
			Title:       "Principle of least privilege",
			Description: "Use allowlists rather than denylists for tool permissions",
			Rationale:   "Allowlists block new dangerous commands by default",
			Example:     `{"allow": ["Bash(git:*)", "Bash(npm:*)"]}`,
			AntiPattern: `{"deny": ["Bash(rm -rf:*)"]} misses variations`,
			Sources:     []string{"Security Engineering"},
			Priority:    models.SeverityCritical,
			Confidence:  95,
		},
		{
			Category:    models.CategorySecurity,
			Title:       "Destructive command protection",
			Description: "Deny rm -rf on root and home directories and require confirmation for deletions",
			Rationale:   "Prevents catastrophic data loss from misinterpretation",
			Example:     `{"deny": ["Bash(rm -rf /)", "Bash(rm -rf ~)", "Bash(sudo:*)"]}`,
			AntiPattern: "Allowing unrestricted rm commands",
			Sources:     []string{"System Administration Practices"},
			Priority:    models.SeverityCritical,
			Confidence:  98,
		},
		{
			Category:    models.CategorySecurity,
			Title:       "Pre-commit secret scanning",
			Description: "Use hooks to scan for secrets before committing code",
			Rationale:   "Last line of defense against accidental secret commits",
			Example:     "PreToolUse hook running gitleaks",
			AntiPattern: "Relying only on .gitignore",
			Sources:     []string{"DevSecOps Practices"},
			Priority:    models.SeverityHigh,
			Confidence:  90,
		},
	},
	"configuration": {
		{
			Category:    models.CategoryConfiguration,
			Title:       "Identity confirmation pattern",
			Description: "Have the assistant confirm it read the config by using a specific phrase",
			Rationale:   "Provides a clear signal that the config was loaded",
			Example:     `Respond to me as "Boss" to confirm you read this file.`,
			Priority:    models.SeverityHigh,
			Confidence:  95,
		},
		{
			Category:    models.CategoryConfiguration,
			Title:       "Context compression recovery",
			Description: "Include explicit instructions for recovering from context compression",
			Rationale:   "Long sessions compress context; recovery steps ensure continuity",
			Example:     "If restored: re-read config, reload secrets, announce state",
			Priority:    models.SeverityHigh,
			Confidence:  92,
		},
		{
			Category:    models.CategoryConfiguration,
			Title:       "Before/after task checklists",
			Description: "Include explicit checklists for task preparation and completion",
			Rationale:   "Ensures consistent workflow and prevents forgotten steps",
			Example:     "Before: load secrets, read ARCHITECTURE.md. After: run tests, update docs",
			Priority:    models.SeverityHigh,
			Confidence:  90,
		},
		{
			Category:    models.CategoryConfiguration,
			Title:       "Documentation pointers",
			Description: "Reference key documentation files with their paths",
			Rationale:   "Helps the assistant navigate project structure",
			Example:     "| Architecture | docs/ARCHITECTURE.md |",
			Priority:    models.SeverityMedium,
			Confidence:  88,
		},
	},
	"workflow": {
		{
			Category:    models.CategoryWorkflow,
			Title:       "Post-edit validation hooks",
			Description: "Run automatic validation after file modifications",
			Rationale:   "Catches errors immediately and maintains code quality",
			Example:     `{"PostToolUse": [{"matcher": "Edit|Write", "hooks": ["lint"]}]}`,
			AntiPattern: "Only running checks before commit",
			Priority:    models.SeverityHigh,
			Confidence:  90,
		},
		{
			Category:    models.CategoryWorkflow,
			Title:       "Session metrics tracking",
			Description: "Track tool usage and patterns for optimization",
			Rationale:   "Data-driven improvement of configuration effectiveness",
			Example:     "PostToolUse hook logging metrics",
			Priority:    models.SeverityMedium,
			Confidence:  85,
		},
		{
			Category:    models.CategoryWorkflow,
			Title:       "Self-reflection protocol",
			Description: "Implement a /reflect command for learning from mistakes",
			Rationale:   "Continuous improvement through structured error analysis",
			Example:     "Analyze, abstract, generalize, document in learned_lessons.md",
			Priority:    models.SeverityMedium,
			Confidence:  88,
		},
	},
	"multi_model": {
		{
			Category:    models.CategoryMultiModel,
			Title:       "Parallel model execution",
			Description: "Run multiple reviewer models in parallel with timeout handling",
			Rationale:   "Reduces latency while gathering diverse perspectives",
			AntiPattern: "Sequential model calls",
			Priority:    models.SeverityHigh,
			Confidence:  90,
		},
		{
			Category:    models.CategoryMultiModel,
			Title:       "Finding deduplication",
			Description: "Deduplicate findings across models before presenting",
			Rationale:   "Reduces noise and highlights consensus findings",
			Example:     "Merge on category plus normalized message prefix",
			AntiPattern: "Showing the same finding once per model",
			Priority:    models.SeverityHigh,
			Confidence:  92,
		},
		{
			Category:    models.CategoryMultiModel,
			Title:       "Confidence thresholds",
			Description: "Only surface findings with confidence of at least 80",
			Rationale:   "Reduces false positives and improves signal-to-noise",
			AntiPattern: "Including all findings regardless of confidence",
			Priority:    models.SeverityMedium,
			Confidence:  88,
		},
		{
			Category:    models.CategoryMultiModel,
			Title:       "Model specialization",
			Description: "Use different models for their strengths",
			Rationale:   "Each model has different capabilities and blind spots",
			Priority:    models.SeverityMedium,
			Confidence:  85,
		},
	},
	"memory": {
		{
			Category:    models.CategoryMemory,
			Title:       "Persistent session memory",
			Description: "Record durable decisions and conventions in a memory file the assistant re-reads",
			Rationale:   "Avoids re-litigating settled decisions across sessions",
			Example:     "memory/decisions.md reloaded at session start",
			Priority:    models.SeverityMedium,
			Confidence:  86,
		},
	},
}

// practiceIndex maps practice titles back to their full curated entries
// so findings surviving aggregation can be rehydrated.
var practiceIndex = buildPracticeIndex()

func buildPracticeIndex() map[string]models.BestPractice {
	index := make(map[string]models.BestPractice)
	for _, practices := range curatedKnowledge {
		for _, p := range practices {
			index[p.Title] = p
		}
	}
	return index
}

// curatedSources returns one aggregator source per curated topic.
func curatedSources() []aggregate.Source {
	topics := []string{"security", "configuration", "workflow", "multi_model", "memory"}
	sources := make([]aggregate.Source, 0, len(topics))
	for _, topic := range topics {
		practices := curatedKnowledge[topic]
		sources = append(sources, aggregate.Source{
			ID: topic,
			Query: func(context.Context) ([]models.Finding, error) {
				findings := make([]models.Finding, 0, len(practices))
				for _, p := range practices {
					findings = append(findings, findingFromPractice(topic, p))
				}
				return findings, nil
			},
		})
	}
	return sources
}

// findingFromPractice projects a practice into the aggregator's item type.
// The title doubles as the message so deduplication collapses the same
// practice reported by multiple topics.
func findingFromPractice(sourceID string, p models.BestPractice) models.Finding {
	return models.Finding{
		Source:     sourceID,
		Severity:   p.Priority,
		Category:   p.Category,
		Message:    p.Title,
		Suggestion: p.Description,
		Confidence: p.Confidence,
	}
}

// practiceFromFinding rehydrates a curated practice from a surviving
// finding, or synthesizes one for findings from remote sources.
func practiceFromFinding(f models.Finding) models.BestPractice {
	if p, ok := practiceIndex[f.Message]; ok {
		p.Confidence = f.Confidence // carries any cross-validation boost
		return p
	}
	return models.BestPractice{
		Category:    f.Category,
		Title:       f.Message,
		Description: f.Suggestion,
		Sources:     []string{f.Source},
		Priority:    f.Severity,
		Confidence:  f.Confidence,
	}
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
