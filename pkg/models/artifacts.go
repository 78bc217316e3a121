package models

// GeneratedFile is one configuration file produced by the generation stage.
type GeneratedFile struct {
	Path        string `json:"path" yaml:"path"`
	Content     string `json:"content" yaml:"content"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PatternEntry is one reusable pattern discovered in an existing
// configuration (an agent definition, a command, a hook, or a permission
// rule).
type PatternEntry struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	SourceFile  string `json:"source_file" yaml:"source_file"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AnalysisPatterns aggregates everything the discovery stage extracted
// from existing configurations.
type AnalysisPatterns struct {
	Configs     []string       `json:"configs" yaml:"configs"`
	Agents      []PatternEntry `json:"agents,omitempty" yaml:"agents,omitempty"`
	Commands    []PatternEntry `json:"commands,omitempty" yaml:"commands,omitempty"`
	Hooks       []PatternEntry `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	Permissions []PatternEntry `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// ValidationIssue is a single problem found while validating generated files.
type ValidationIssue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string   `json:"message" yaml:"message"`
	Fix      string   `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// ValidationReport is the complete result of validating a configuration.
type ValidationReport struct {
	IsValid      bool              `json:"is_valid" yaml:"is_valid"`
	Issues       []ValidationIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
	Score        int               `json:"score" yaml:"score"`
	Summary      string            `json:"summary" yaml:"summary"`
	ChecksPassed int               `json:"checks_passed" yaml:"checks_passed"`
	ChecksTotal  int               `json:"checks_total" yaml:"checks_total"`
}

// Concern is one advisory raised by the critical analysis stage about a
// questionnaire choice.
type Concern struct {
	Severity       Severity `json:"severity" yaml:"severity"`
	Category       Category `json:"category" yaml:"category"`
	Message        string   `json:"message" yaml:"message"`
	Question       string   `json:"question" yaml:"question"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
	Context        string   `json:"context,omitempty" yaml:"context,omitempty"`
}

// AnalysisResult is the outcome of the critical analysis stage.
type AnalysisResult struct {
	IsValid  bool      `json:"is_valid" yaml:"is_valid"`
	Concerns []Concern `json:"concerns,omitempty" yaml:"concerns,omitempty"`
	Score    int       `json:"score" yaml:"score"`
	Summary  string    `json:"summary" yaml:"summary"`
}
