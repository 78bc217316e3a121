// Package questions collects configuration preferences, either
// interactively through a terminal questionnaire or non-interactively
// from an answers file.
package questions

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mlehotay/confpilot/pkg/models"
)

// questionKind selects the input widget for a question.
type questionKind int

const (
	kindText questionKind = iota
	kindSelect
	kindMultiSelect
	kindConfirm
)

// question is one entry in the questionnaire.
type question struct {
	key     string
	prompt  string
	kind    questionKind
	options []string
	def     string
	help    string
	// condition gates the question on earlier answers; nil means always ask.
	condition func(map[string]any) bool
}

// group is a titled set of related questions.
type group struct {
	name      string
	questions []question
}

// Engine asks the questionnaire. With a non-empty answersPath it loads
// the answers file instead of prompting.
type Engine struct {
	answersPath string
	interactive bool
}

// NewEngine creates a questionnaire engine. answersPath may be empty;
// interactive false with an empty answersPath yields pure defaults.
func NewEngine(answersPath string, interactive bool) *Engine {
	return &Engine{answersPath: answersPath, interactive: interactive}
}

// Ask collects answers. Patterns and research only enrich prompts and
// defaults; both may be nil.
func (e *Engine) Ask(patterns *models.AnalysisPatterns, research *models.ResearchResults) (*models.QuestionnaireAnswers, error) {
	if e.answersPath != "" {
		return loadAnswersFile(e.answersPath)
	}
	if !e.interactive {
		answers := &models.QuestionnaireAnswers{}
		answers.Defaults()
		return answers, nil
	}

	raw, err := runQuestionnaire(buildGroups(patterns))
	if err != nil {
		return nil, err
	}
	return answersFromRaw(raw), nil
}

// loadAnswersFile reads a YAML (or JSON, which YAML subsumes) answers file.
func loadAnswersFile(path string) (*models.QuestionnaireAnswers, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers file: %w", err)
	}
	var answers models.QuestionnaireAnswers
	if err := yaml.Unmarshal(content, &answers); err != nil {
		return nil, fmt.Errorf("parsing answers file %s: %w", path, err)
	}
	return &answers, nil
}

// buildGroups assembles the full questionnaire. Discovered patterns add
// context to the basics prompt.
func buildGroups(patterns *models.AnalysisPatterns) []group {
	basicsPrompt := "What should we call this configuration?"
	if patterns != nil && len(patterns.Configs) > 0 {
		basicsPrompt = fmt.Sprintf("What should we call this configuration? (%d existing found)", len(patterns.Configs))
	}

	return []group{
		{
			name: "Basics",
			questions: []question{
				{key: "config_name", prompt: basicsPrompt, kind: kindText, def: "my-claude-config",
					help: "This will be the directory name"},
				{key: "identity", prompt: "How should the assistant address you?", kind: kindText, def: "Boss",
					help: "Used to confirm the config was read"},
				{key: "purpose", prompt: "What is the primary purpose of this config?", kind: kindSelect,
					options: []string{
						"Solo development - personal projects",
						"Team collaboration - shared codebase",
						"Learning - educational and practice",
						"Enterprise - production systems",
						"Research - experimental and prototyping",
					},
					def: "Solo development - personal projects"},
			},
		},
		{
			name: "Tech Stack",
			questions: []question{
				{key: "primary_language", prompt: "What's your primary programming language?", kind: kindSelect,
					options: []string{"Python", "TypeScript/JavaScript", "Go", "Rust", "Java/Kotlin", "C/C++", "Ruby", "Multiple languages"},
					def:     "Python"},
				{key: "frameworks", prompt: "What frameworks do you use?", kind: kindMultiSelect,
					options: []string{"React/Next.js", "Vue/Nuxt", "FastAPI", "Django", "Flask", "Express/Node", "Spring Boot", "Rails"},
					help:    "Select all that apply"},
				{key: "package_manager", prompt: "Which package manager?", kind: kindSelect,
					options: []string{"pip", "poetry", "uv", "npm", "pnpm", "yarn", "cargo", "go modules", "other"},
					def:     "pip"},
				{key: "test_runner", prompt: "Which test runner?", kind: kindText, def: "pytest"},
				{key: "build_command", prompt: "What's your build command?", kind: kindText, def: "make build"},
			},
		},
		{
			name: "Workflow",
			questions: []question{
				{key: "autonomy_level", prompt: "How much autonomy should the assistant have?", kind: kindSelect,
					options: []string{
						"Co-founder - full autonomy, proactive",
						"Senior dev - autonomous with check-ins",
						"Assistant - asks before acting",
					},
					def: "Senior dev - autonomous with check-ins"},
				{key: "enable_memory", prompt: "Enable the persistent memory system?", kind: kindConfirm, def: "yes"},
			},
		},
		{
			name: "Security",
			questions: []question{
				{key: "security_level", prompt: "What security level do you need?", kind: kindSelect,
					options: []string{
						"Relaxed - minimal restrictions",
						"Standard - sensible defaults",
						"High - production systems",
						"Maximum - strict compliance",
					},
					def: "Standard - sensible defaults"},
				{key: "allow_file_deletion", prompt: "Should the assistant delete files?", kind: kindSelect,
					options: []string{
						"Yes - full deletion allowed",
						"Limited - only files it created",
						"No - never delete",
					},
					def: "Limited - only files it created"},
				{key: "has_secrets", prompt: "Do you use API keys or secrets?", kind: kindConfirm, def: "no"},
				{key: "secrets_location", prompt: "Where are secrets loaded from?", kind: kindText,
					def:       "~/.secrets/load.sh",
					condition: func(a map[string]any) bool { return a["has_secrets"] == true }},
			},
		},
		{
			name: "Features",
			questions: []question{
				{key: "enable_agents", prompt: "Which agents should be included?", kind: kindMultiSelect,
					options: []string{
						"Code Reviewer - quality and security checks",
						"Architect - design decisions",
						"Researcher - deep investigations",
						"Debugger - error analysis",
						"Security Auditor - vulnerability scanning",
					}},
				{key: "enable_commands", prompt: "Which commands should be included?", kind: kindMultiSelect,
					options: []string{
						"/reflect - learn from mistakes",
						"/review - code review workflow",
						"/standup - daily summary",
						"/research - deep research mode",
						"/check - pre-commit checklist",
					}},
				{key: "enable_hooks", prompt: "Which hooks should be configured?", kind: kindMultiSelect,
					options: []string{
						"Post-edit safety check",
						"Session metrics tracking",
						"Auto-reflection on errors",
					}},
				{key: "enable_multi_model", prompt: "Enable multi-model review?", kind: kindConfirm, def: "no"},
			},
		},
	}
}

// answersFromRaw maps questionnaire output onto the answers struct.
func answersFromRaw(raw map[string]any) *models.QuestionnaireAnswers {
	answers := &models.QuestionnaireAnswers{
		ConfigName:        rawString(raw, "config_name"),
		IdentityPhrase:    rawString(raw, "identity"),
		Purpose:           purposeFromLabel(rawString(raw, "purpose")),
		AutonomyLevel:     autonomyFromLabel(rawString(raw, "autonomy_level")),
		SecurityLevel:     securityFromLabel(rawString(raw, "security_level")),
		AllowFileDeletion: deletionFromLabel(rawString(raw, "allow_file_deletion")),
		EnableHooks:       rawStrings(raw, "enable_hooks"),
		EnableAgents:      rawStrings(raw, "enable_agents"),
		EnableCommands:    rawStrings(raw, "enable_commands"),
		EnableMemory:      rawBool(raw, "enable_memory"),
		EnableMultiModel:  rawBool(raw, "enable_multi_model"),
		HasSecrets:        rawBool(raw, "has_secrets"),
		SecretsLocation:   rawString(raw, "secrets_location"),
		Stack: models.TechStack{
			PrimaryLanguage: rawString(raw, "primary_language"),
			Frameworks:      rawStrings(raw, "frameworks"),
			PackageManager:  rawString(raw, "package_manager"),
			TestRunner:      rawString(raw, "test_runner"),
			BuildCommand:    rawString(raw, "build_command"),
		},
	}
	answers.Defaults()
	return answers
}

func purposeFromLabel(label string) models.Purpose {
	switch {
	case strings.HasPrefix(label, "Team"):
		return models.PurposeTeam
	case strings.HasPrefix(label, "Learning"):
		return models.PurposeLearning
	case strings.HasPrefix(label, "Enterprise"):
		return models.PurposeEnterprise
	case strings.HasPrefix(label, "Research"):
		return models.PurposeResearch
	case label == "":
		return ""
	default:
		return models.PurposeSolo
	}
}

func autonomyFromLabel(label string) models.AutonomyLevel {
	switch {
	case strings.HasPrefix(label, "Co-founder"):
		return models.AutonomyCoFounder
	case strings.HasPrefix(label, "Assistant"):
		return models.AutonomyAssistant
	case label == "":
		return ""
	default:
		return models.AutonomySeniorDev
	}
}

func securityFromLabel(label string) models.SecurityLevel {
	switch {
	case strings.HasPrefix(label, "Relaxed"):
		return models.SecurityRelaxed
	case strings.HasPrefix(label, "High"):
		return models.SecurityHigh
	case strings.HasPrefix(label, "Maximum"):
		return models.SecurityMaximum
	case label == "":
		return ""
	default:
		return models.SecurityStandard
	}
}

func deletionFromLabel(label string) models.FileDeletionPolicy {
	switch {
	case strings.HasPrefix(label, "Yes"):
		return models.DeletionFull
	case strings.HasPrefix(label, "No"):
		return models.DeletionNone
	case label == "":
		return ""
	default:
		return models.DeletionLimited
	}
}

func rawString(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return ""
}

func rawStrings(raw map[string]any, key string) []string {
	if s, ok := raw[key].([]string); ok {
		return s
	}
	return nil
}

func rawBool(raw map[string]any, key string) bool {
	if b, ok := raw[key].(bool); ok {
		return b
	}
	return false
}
