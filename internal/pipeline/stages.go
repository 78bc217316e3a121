package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// Canonical stage names, in execution order.
const (
	StageSetup         = "setup"
	StageDiscovery     = "discovery"
	StageResearch      = "research"
	StageQuestionnaire = "questionnaire"
	StageAnalysis      = "analysis"
	StageGeneration    = "generation"
	StageValidation    = "validation"
	StageReview        = "review"
	StageWrite         = "write"
)

// --- Collaborator contracts ---
//
// The stages depend on these narrow interfaces; the concrete
// implementations live in their own packages and are injected during
// application wiring.

// SetupWizard loads or creates the user profile.
type SetupWizard interface {
	EnsureSetup() (*models.UserProfile, error)
	QuickSetup() (*models.UserProfile, error)
}

// PatternAnalyzer extracts reusable patterns from existing configurations.
type PatternAnalyzer interface {
	Analyze(path string) (*models.AnalysisPatterns, error)
}

// Researcher gathers best practices from multiple knowledge sources.
type Researcher interface {
	ResearchAll(ctx context.Context, rc models.ResearchContext, deep bool) (*models.ResearchResults, error)
}

// QuestionAsker runs the questionnaire, interactively or from a file.
type QuestionAsker interface {
	Ask(patterns *models.AnalysisPatterns, research *models.ResearchResults) (*models.QuestionnaireAnswers, error)
}

// Advisor critically analyzes questionnaire answers.
type Advisor interface {
	AnalyzeChoices(answers *models.QuestionnaireAnswers) (*models.AnalysisResult, error)
}

// Generator renders configuration files from answers and prior findings.
type Generator interface {
	Generate(answers *models.QuestionnaireAnswers, patterns *models.AnalysisPatterns, research *models.ResearchResults) ([]models.GeneratedFile, error)
}

// Validator checks generated files and produces a scored report.
type Validator interface {
	ValidateFiles(files []models.GeneratedFile) (*models.ValidationReport, error)
}

// Reviewer runs the multi-model external review.
type Reviewer interface {
	Review(ctx context.Context, files []models.GeneratedFile, answers *models.QuestionnaireAnswers) ([]models.Finding, error)
}

// FileWriter persists generated files under a destination directory.
// Implementations must be idempotent: re-writing the same inputs
// overwrites rather than corrupts.
type FileWriter interface {
	WriteFiles(files []models.GeneratedFile, dest string) error
}

// ConfirmFunc asks the operator a yes/no question. A nil ConfirmFunc
// means non-interactive mode: proceed without asking.
type ConfirmFunc func(prompt string) bool

// --- Setup ---

// SetupStage loads the user profile, running the first-time wizard when
// none exists.
type SetupStage struct {
	base
	wizard SetupWizard
	quick  bool
}

// NewSetupStage creates the setup stage. quick skips interactive prompts
// and uses stored defaults.
func NewSetupStage(wizard SetupWizard, quick bool, events EventLogger) *SetupStage {
	return &SetupStage{
		base:   base{name: StageSetup, description: "Setting up environment", events: events},
		wizard: wizard,
		quick:  quick,
	}
}

func (s *SetupStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	var (
		profile *models.UserProfile
		err     error
	)
	if s.quick {
		profile, err = s.wizard.QuickSetup()
	} else {
		profile, err = s.wizard.EnsureSetup()
	}
	if err != nil {
		return pctx, fmt.Errorf("loading profile: %w", err)
	}
	pctx.Profile = profile
	return pctx, nil
}

// --- Discovery ---

// DiscoveryStage analyzes existing configurations for reusable patterns.
type DiscoveryStage struct {
	base
	analyzer    PatternAnalyzer
	configsPath string
}

// NewDiscoveryStage creates the discovery stage. configsPath overrides
// the profile's configured path when non-empty.
func NewDiscoveryStage(analyzer PatternAnalyzer, configsPath string, events EventLogger) *DiscoveryStage {
	return &DiscoveryStage{
		base:        base{name: StageDiscovery, description: "Analyzing existing configurations", events: events},
		analyzer:    analyzer,
		configsPath: configsPath,
	}
}

func (s *DiscoveryStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	path := s.configsPath
	if path == "" && pctx.Profile != nil {
		path = pctx.Profile.ConfigsPath
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return pctx, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, "claude-configs")
	}

	patterns, err := s.analyzer.Analyze(path)
	if err != nil {
		return pctx, fmt.Errorf("analyzing %s: %w", path, err)
	}
	pctx.Patterns = patterns
	return pctx, nil
}

// --- Research ---

// ResearchStage gathers best practices from multiple knowledge sources
// via the aggregator.
type ResearchStage struct {
	base
	researcher Researcher
	deep       bool
	skip       bool
}

// NewResearchStage creates the research stage. deep enables remote
// sources; skip disables the stage entirely.
func NewResearchStage(researcher Researcher, deep, skip bool, events EventLogger) *ResearchStage {
	return &ResearchStage{
		base:       base{name: StageResearch, description: "Researching best practices", events: events},
		researcher: researcher,
		deep:       deep,
		skip:       skip,
	}
}

func (s *ResearchStage) ShouldSkip(*Context) bool { return s.skip }

func (s *ResearchStage) Run(ctx context.Context, pctx *Context) (*Context, error) {
	rc := models.ResearchContext{}
	if pctx.Patterns != nil {
		rc.ExistingPatterns = pctx.Patterns.Configs
	}
	if pctx.Profile != nil {
		rc.UseCase = pctx.Profile.Preferences["default_purpose"]
	}

	results, err := s.researcher.ResearchAll(ctx, rc, s.deep)
	if err != nil {
		return pctx, fmt.Errorf("researching best practices: %w", err)
	}
	pctx.Research = results
	return pctx, nil
}

// --- Questionnaire ---

// QuestionnaireStage collects configuration preferences. It tolerates a
// fully empty context: prior patterns and research only enrich defaults.
type QuestionnaireStage struct {
	base
	asker QuestionAsker
}

// NewQuestionnaireStage creates the questionnaire stage.
func NewQuestionnaireStage(asker QuestionAsker, events EventLogger) *QuestionnaireStage {
	return &QuestionnaireStage{
		base:  base{name: StageQuestionnaire, description: "Configuration questionnaire", events: events},
		asker: asker,
	}
}

func (s *QuestionnaireStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	answers, err := s.asker.Ask(pctx.Patterns, pctx.Research)
	if err != nil {
		// Cancellation is fatal, not a skip.
		return pctx, fmt.Errorf("questionnaire: %w", err)
	}
	answers.Defaults()
	pctx.Answers = answers
	return pctx, nil
}

// --- Analysis ---

// AnalysisStage critically reviews the questionnaire answers and asks the
// operator to confirm when critical concerns are found.
type AnalysisStage struct {
	base
	advisor Advisor
	confirm ConfirmFunc
}

// NewAnalysisStage creates the analysis stage. confirm may be nil for
// non-interactive runs.
func NewAnalysisStage(advisor Advisor, confirm ConfirmFunc, events EventLogger) *AnalysisStage {
	return &AnalysisStage{
		base:    base{name: StageAnalysis, description: "Analyzing configuration choices", events: events},
		advisor: advisor,
		confirm: confirm,
	}
}

func (s *AnalysisStage) ValidateInput(pctx *Context) bool { return pctx.Answers != nil }

func (s *AnalysisStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	result, err := s.advisor.AnalyzeChoices(pctx.Answers)
	if err != nil {
		return pctx, fmt.Errorf("analyzing choices: %w", err)
	}
	pctx.Analysis = result

	if !result.IsValid && s.confirm != nil {
		if !s.confirm(fmt.Sprintf("%s. Continue anyway?", result.Summary)) {
			return pctx, fmt.Errorf("declined to continue with current configuration")
		}
	}
	return pctx, nil
}

// --- Generation ---

// GenerationStage renders the configuration files.
type GenerationStage struct {
	base
	generator Generator
}

// NewGenerationStage creates the generation stage.
func NewGenerationStage(generator Generator, events EventLogger) *GenerationStage {
	return &GenerationStage{
		base:      base{name: StageGeneration, description: "Generating configuration files", events: events},
		generator: generator,
	}
}

func (s *GenerationStage) ValidateInput(pctx *Context) bool { return pctx.Answers != nil }

func (s *GenerationStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	files, err := s.generator.Generate(pctx.Answers, pctx.Patterns, pctx.Research)
	if err != nil {
		return pctx, fmt.Errorf("generating files: %w", err)
	}
	pctx.GeneratedFiles = append(pctx.GeneratedFiles, files...)
	return pctx, nil
}

// --- Validation ---

// ValidationStage checks the generated files. Validation findings are
// data, not errors: a low score never aborts the run.
type ValidationStage struct {
	base
	validator Validator
}

// NewValidationStage creates the validation stage.
func NewValidationStage(validator Validator, events EventLogger) *ValidationStage {
	return &ValidationStage{
		base:      base{name: StageValidation, description: "Validating configuration", events: events},
		validator: validator,
	}
}

func (s *ValidationStage) ValidateInput(pctx *Context) bool { return len(pctx.GeneratedFiles) > 0 }

func (s *ValidationStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	report, err := s.validator.ValidateFiles(pctx.GeneratedFiles)
	if err != nil {
		return pctx, fmt.Errorf("validating files: %w", err)
	}
	pctx.Validation = report
	return pctx, nil
}

// --- Review ---

// ReviewStage runs the multi-model external review via the aggregator.
// Review issues are surfaced, never auto-aborted on.
type ReviewStage struct {
	base
	reviewer Reviewer
	skip     bool
}

// NewReviewStage creates the review stage.
func NewReviewStage(reviewer Reviewer, skip bool, events EventLogger) *ReviewStage {
	return &ReviewStage{
		base:     base{name: StageReview, description: "Multi-model review", events: events},
		reviewer: reviewer,
		skip:     skip,
	}
}

func (s *ReviewStage) ShouldSkip(pctx *Context) bool {
	if s.skip {
		return true
	}
	// Without API keys there are no reviewer participants to query.
	return pctx.Profile != nil && !pctx.Profile.APIKeysConfigured
}

func (s *ReviewStage) ValidateInput(pctx *Context) bool { return len(pctx.GeneratedFiles) > 0 }

func (s *ReviewStage) Run(ctx context.Context, pctx *Context) (*Context, error) {
	issues, err := s.reviewer.Review(ctx, pctx.GeneratedFiles, pctx.Answers)
	if err != nil {
		return pctx, fmt.Errorf("reviewing configuration: %w", err)
	}
	pctx.ReviewIssues = append(pctx.ReviewIssues, issues...)
	return pctx, nil
}

// --- Write ---

// configNamePattern strips everything that is not safe in a directory name.
var configNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// WriteStage persists the generated files. The only stage with a durable
// side effect; the write itself is idempotent.
type WriteStage struct {
	base
	writer     FileWriter
	outputPath string
	baseDir    string
	force      bool
	confirm    ConfirmFunc
}

// NewWriteStage creates the write stage. outputPath overrides the
// answers-derived destination; baseDir is the directory the destination
// must stay within (the current working directory when empty); force
// skips the confirmation prompt.
func NewWriteStage(writer FileWriter, outputPath, baseDir string, force bool, confirm ConfirmFunc, events EventLogger) *WriteStage {
	return &WriteStage{
		base:       base{name: StageWrite, description: "Writing configuration files", events: events},
		writer:     writer,
		outputPath: outputPath,
		baseDir:    baseDir,
		force:      force,
		confirm:    confirm,
	}
}

func (s *WriteStage) ValidateInput(pctx *Context) bool { return len(pctx.GeneratedFiles) > 0 }

func (s *WriteStage) Run(_ context.Context, pctx *Context) (*Context, error) {
	dest, err := s.resolveDest(pctx)
	if err != nil {
		return pctx, err
	}

	if !s.force && s.confirm != nil {
		if !s.confirm(fmt.Sprintf("Write configuration to %s?", dest)) {
			return pctx, fmt.Errorf("write cancelled")
		}
	}

	if err := s.writer.WriteFiles(pctx.GeneratedFiles, dest); err != nil {
		return pctx, fmt.Errorf("writing to %s: %w", dest, err)
	}
	return pctx, nil
}

// resolveDest determines the output directory and rejects destinations
// that escape the base directory.
func (s *WriteStage) resolveDest(pctx *Context) (string, error) {
	baseDir := s.baseDir
	if baseDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = cwd
	}

	dest := s.outputPath
	if dest == "" && pctx.Answers != nil {
		dest = filepath.Join(baseDir, sanitizeConfigName(pctx.Answers.ConfigName))
	}
	if dest == "" {
		dest = filepath.Join(baseDir, "new-config")
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(baseDir, dest)
	}

	resolved := filepath.Clean(dest)
	rel, err := filepath.Rel(filepath.Clean(baseDir), resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid output path: %s escapes base directory", dest)
	}
	return resolved, nil
}

// sanitizeConfigName strips path separators and traversal sequences from
// a user-supplied configuration name.
func sanitizeConfigName(name string) string {
	cleaned := strings.NewReplacer("/", "", "\\", "", "..", "").Replace(name)
	cleaned = configNamePattern.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return "new-config"
	}
	return cleaned
}
