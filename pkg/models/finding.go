package models

import "strings"

// dedupePrefixLen bounds how much of the message participates in the
// dedupe key, so near-identical phrasings from different sources collapse.
const dedupePrefixLen = 50

// Finding is one unit of output from a research source or reviewer
// participant. Findings are never mutated after creation, except for the
// confidence boost applied during cross-validation.
type Finding struct {
	Source     string   `json:"source" yaml:"source"`
	Severity   Severity `json:"severity" yaml:"severity"`
	Category   Category `json:"category" yaml:"category"`
	Message    string   `json:"message" yaml:"message"`
	Suggestion string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	File       string   `json:"file,omitempty" yaml:"file,omitempty"`
	Confidence int      `json:"confidence" yaml:"confidence"`
}

// DedupeKey returns the merge key for deduplication: category plus the
// normalized message prefix. Findings with equal keys are duplicates
// regardless of which source reported them.
func (f Finding) DedupeKey() string {
	msg := strings.ToLower(strings.TrimSpace(f.Message))
	if runes := []rune(msg); len(runes) > dedupePrefixLen {
		msg = string(runes[:dedupePrefixLen])
	}
	return string(f.Category) + "|" + msg
}

// BestPractice is a research finding about configuring AI coding
// assistants, enriched with rationale and examples for presentation.
type BestPractice struct {
	Category    Category `json:"category" yaml:"category"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Rationale   string   `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Example     string   `json:"example,omitempty" yaml:"example,omitempty"`
	AntiPattern string   `json:"anti_pattern,omitempty" yaml:"anti_pattern,omitempty"`
	Sources     []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Priority    Severity `json:"priority" yaml:"priority"`
	Confidence  int      `json:"confidence" yaml:"confidence"`
}

// ResearchContext narrows research to what matters for this user.
type ResearchContext struct {
	TechStack            []string `json:"tech_stack,omitempty" yaml:"tech_stack,omitempty"`
	UseCase              string   `json:"use_case,omitempty" yaml:"use_case,omitempty"`
	TeamSize             string   `json:"team_size,omitempty" yaml:"team_size,omitempty"`
	SecurityRequirements string   `json:"security_requirements,omitempty" yaml:"security_requirements,omitempty"`
	ExistingPatterns     []string `json:"existing_patterns,omitempty" yaml:"existing_patterns,omitempty"`
}

// ResearchResults holds the outcome of the best-practice research stage.
type ResearchResults struct {
	SourcesAnalyzed int            `json:"sources_analyzed" yaml:"sources_analyzed"`
	Practices       []BestPractice `json:"practices" yaml:"practices"`
	FailedSources   []string       `json:"failed_sources,omitempty" yaml:"failed_sources,omitempty"`
}
