// Package generator renders complete assistant configurations from
// questionnaire answers. Output is deterministic for a given set of
// answers so repeated runs produce identical files.
package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/mlehotay/confpilot/pkg/models"
)

// ConfigGenerator produces the file set for a configuration.
type ConfigGenerator interface {
	Generate(answers *models.QuestionnaireAnswers, patterns *models.AnalysisPatterns, research *models.ResearchResults) ([]models.GeneratedFile, error)
}

type configGenerator struct {
	// now is injectable so tests get stable timestamps.
	now func() time.Time
}

// NewConfigGenerator creates a ConfigGenerator.
func NewConfigGenerator() ConfigGenerator {
	return &configGenerator{now: time.Now}
}

// Generate renders every file the answers call for. Core files are
// always produced; memory, agents, commands, and models.json only when
// the corresponding feature is enabled.
func (g *configGenerator) Generate(answers *models.QuestionnaireAnswers, patterns *models.AnalysisPatterns, research *models.ResearchResults) ([]models.GeneratedFile, error) {
	if answers == nil {
		return nil, fmt.Errorf("no answers to generate from")
	}

	var files []models.GeneratedFile

	claudeMD, err := g.renderClaudeMD(answers)
	if err != nil {
		return nil, fmt.Errorf("rendering CLAUDE.md: %w", err)
	}
	files = append(files, claudeMD)

	settings, err := g.renderSettings(answers)
	if err != nil {
		return nil, fmt.Errorf("rendering settings.json: %w", err)
	}
	files = append(files, settings)

	if answers.EnableMemory {
		files = append(files, g.renderMemorySystem(answers)...)
	}
	files = append(files, renderAgents(answers)...)
	files = append(files, renderCommands(answers)...)
	if answers.EnableMultiModel {
		modelsFile, err := renderModelsJSON(answers)
		if err != nil {
			return nil, fmt.Errorf("rendering models.json: %w", err)
		}
		files = append(files, modelsFile)
	}
	files = append(files, renderRules(answers)...)

	return files, nil
}

// --- CLAUDE.md ---

var claudeMDTemplate = template.Must(template.New("claude_md").Parse(`# Claude Code Configuration

**CRITICAL: Address me as "{{.Identity}}" to confirm you read this file.**

---

## CONTEXT COMPRESSION RECOVERY

**If this session was restored from context compression, you MUST:**

1. Re-read this entire file
2. Run ` + "`source {{.SecretsLocation}}`" + ` to reload API keys
3. Check ` + "`models.json`" + ` for current model configuration (if multi-model enabled)
4. Announce: "Context restored. Ready to continue, {{.Identity}}."

---

## Purpose

{{.Purpose}}

---

## Tech Stack

{{.TechStack}}

---

## Commands

{{.Commands}}

---

## Philosophy

{{.Philosophy}}

---

## Code Standards

* Check existing patterns before implementing new code
* Prefer composition over inheritance
* Write tests for new functionality
* Keep functions small and focused

---

## API Keys & Secrets

Secrets are stored in ` + "`{{.SecretsLocation}}`" + `.
` + "```bash" + `
source {{.SecretsLocation}}  # Load secrets
` + "```" + `

**NEVER hardcode or commit secrets.**

---

## Before Any Task

1. Load secrets if needed: ` + "`source {{.SecretsLocation}}`" + `
2. Read ` + "`docs/ARCHITECTURE.md`" + ` for system context
3. Read ` + "`.claude/rules/learned_lessons.md`" + ` for past mistakes

## After Any Task

1. Run linting and type checking
2. Run relevant tests
3. Update documentation if needed

---

## Documentation Pointers

| Doc | Path |
|-----|------|
| Architecture | ` + "`docs/ARCHITECTURE.md`" + ` |
| Lessons | ` + "`.claude/rules/learned_lessons.md`" + ` |
| Safety | ` + "`.claude/rules/safety.md`" + ` |

---

*Configuration created: {{.Date}}*
`))

func (g *configGenerator) renderClaudeMD(answers *models.QuestionnaireAnswers) (models.GeneratedFile, error) {
	identity := answers.IdentityPhrase
	if identity == "" {
		identity = "Boss"
	}
	secrets := answers.SecretsLocation
	if secrets == "" {
		secrets = "~/.secrets/load.sh"
	}

	data := map[string]string{
		"Identity":        identity,
		"SecretsLocation": secrets,
		"Purpose":         purposeText(answers.Purpose),
		"TechStack":       techStackSection(answers.Stack),
		"Commands":        commandsSection(answers.Stack),
		"Philosophy":      philosophyFor(answers.AutonomyLevel),
		"Date":            g.now().Format("2006-01-02"),
	}

	var sb strings.Builder
	if err := claudeMDTemplate.Execute(&sb, data); err != nil {
		return models.GeneratedFile{}, err
	}
	return models.GeneratedFile{
		Path:        "CLAUDE.md",
		Content:     sb.String(),
		Description: "Main configuration file",
	}, nil
}

func purposeText(p models.Purpose) string {
	switch p {
	case models.PurposeSolo:
		return "Solo development projects"
	case models.PurposeTeam:
		return "Team development with shared conventions"
	case models.PurposeEnterprise:
		return "Enterprise production systems"
	case models.PurposeLearning:
		return "Learning and skill development"
	case models.PurposeResearch:
		return "Research and experimentation"
	default:
		return "General development"
	}
}

func philosophyFor(autonomy models.AutonomyLevel) string {
	switch autonomy {
	case models.AutonomyCoFounder:
		return `You are a **co-founder** (deliberative, autonomous, proactive), not a copilot:

- **Autonomy:** Define sub-tasks without asking
- **Persistence:** Remember via knowledge files
- **Self-Regulation:** Try different approaches when stuck
- **Proactivity:** Identify and fix issues independently

> **Lazy Reviewer Warning:** Humans may approve plausible-sounding output. Double-check your work. Run tests. Verify assumptions.`
	case models.AutonomySeniorDev:
		return `You are a **senior developer** working autonomously with periodic check-ins:

- **Independence:** Make technical decisions independently
- **Communication:** Check in on major architectural decisions
- **Quality:** Ensure tests pass before marking work complete`
	default:
		return `You are a **helpful assistant** that asks clarifying questions:

- **Clarity:** Ask before making assumptions
- **Safety:** Confirm before destructive operations
- **Guidance:** Explain reasoning and trade-offs`
	}
}

func techStackSection(stack models.TechStack) string {
	lang := stack.PrimaryLanguage
	if lang == "" {
		lang = "Not specified"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "* **Language:** %s", lang)
	if len(stack.Frameworks) > 0 {
		n := len(stack.Frameworks)
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&sb, "\n* **Frameworks:** %s", strings.Join(stack.Frameworks[:n], ", "))
	}
	if stack.PackageManager != "" {
		fmt.Fprintf(&sb, "\n* **Package Manager:** %s", stack.PackageManager)
	}
	if stack.Database != "" {
		fmt.Fprintf(&sb, "\n* **Database:** %s", stack.Database)
	}
	return sb.String()
}

func commandsSection(stack models.TechStack) string {
	build := stack.BuildCommand
	if build == "" {
		build = "make build"
	}
	test := stack.TestRunner
	if test == "" {
		test = "make test"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "* `%s` - Build the project\n* `%s` - Run tests", build, test)
	switch {
	case stack.PackageManager == "npm" || stack.PackageManager == "pnpm" || stack.PackageManager == "yarn":
		fmt.Fprintf(&sb, "\n* `%s run lint` - Lint code", stack.PackageManager)
	case strings.Contains(strings.ToLower(stack.PrimaryLanguage), "python"):
		sb.WriteString("\n* `ruff check .` - Lint code")
	case strings.Contains(strings.ToLower(stack.PrimaryLanguage), "go"):
		sb.WriteString("\n* `go vet ./...` - Lint code")
	}
	return sb.String()
}

// --- settings.json ---

type settingsHook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type settingsHookEntry struct {
	Matcher string         `json:"matcher,omitempty"`
	Hooks   []settingsHook `json:"hooks"`
}

type settingsPermissions struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

type settingsDoc struct {
	Permissions settingsPermissions            `json:"permissions"`
	Hooks       map[string][]settingsHookEntry `json:"hooks,omitempty"`
}

func (g *configGenerator) renderSettings(answers *models.QuestionnaireAnswers) (models.GeneratedFile, error) {
	allow := []string{"Read", "Write", "Edit", "Glob", "Grep", "Task",
		"Bash(ls:*)", "Bash(cat:*)", "Bash(mkdir:*)", "Bash(cp:*)", "Bash(mv:*)",
		"Bash(git:*)", "Bash(gh:*)"}
	allow = append(allow, shellAllowances(answers.Stack)...)
	if answers.AllowFileDeletion != models.DeletionNone {
		allow = append(allow, "Bash(rm:*)")
	}

	deny := []string{
		"Bash(rm -rf /)",
		"Bash(rm -rf ~)",
		"Bash(rm -rf /*)",
		"Bash(sudo:*)",
		"Bash(chmod 777 *)",
	}
	if answers.SecurityLevel == models.SecurityHigh || answers.SecurityLevel == models.SecurityMaximum {
		deny = append(deny, "Bash(curl:*)", "Bash(wget:*)", "Bash(rm -rf:*)")
	}

	doc := settingsDoc{
		Permissions: settingsPermissions{
			Allow: dedupeSorted(allow),
			Deny:  dedupeSorted(deny),
		},
		Hooks: buildHooks(answers.EnableHooks),
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.GeneratedFile{}, err
	}
	return models.GeneratedFile{
		Path:        ".claude/settings.json",
		Content:     string(content) + "\n",
		Description: "Permissions and hooks",
	}, nil
}

// shellAllowances derives extra Bash permissions from the tech stack.
func shellAllowances(stack models.TechStack) []string {
	var allow []string
	switch stack.PackageManager {
	case "npm", "pnpm", "yarn":
		allow = append(allow, "Bash("+stack.PackageManager+":*)")
	case "pip", "poetry", "uv":
		allow = append(allow, "Bash("+stack.PackageManager+":*)")
	}
	lang := strings.ToLower(stack.PrimaryLanguage)
	switch {
	case strings.Contains(lang, "go"):
		allow = append(allow, "Bash(go:*)", "Bash(make:*)")
	case strings.Contains(lang, "rust"):
		allow = append(allow, "Bash(cargo:*)")
	case strings.Contains(lang, "python"):
		allow = append(allow, "Bash(pytest:*)", "Bash(ruff:*)")
	case strings.Contains(lang, "typescript"), strings.Contains(lang, "javascript"):
		allow = append(allow, "Bash(npm test:*)", "Bash(eslint:*)")
	}
	if stack.TestRunner != "" {
		runner := strings.Fields(stack.TestRunner)[0]
		allow = append(allow, "Bash("+runner+":*)")
	}
	return allow
}

func buildHooks(enabled []string) map[string][]settingsHookEntry {
	hooks := make(map[string][]settingsHookEntry)

	if matchesAny(enabled, "post-edit", "safety", "tracking") {
		hooks["PostToolUse"] = append(hooks["PostToolUse"], settingsHookEntry{
			Matcher: "Edit|Write|MultiEdit",
			Hooks:   []settingsHook{{Type: "command", Command: "echo 'File modified'"}},
		})
	}
	if matchesAny(enabled, "metrics") {
		hooks["PostToolUse"] = append(hooks["PostToolUse"], settingsHookEntry{
			Matcher: "*",
			Hooks:   []settingsHook{{Type: "command", Command: "echo 'Tool used'"}},
		})
	}
	if matchesAny(enabled, "reflection", "reflect") {
		hooks["Stop"] = append(hooks["Stop"], settingsHookEntry{
			Hooks: []settingsHook{{Type: "command", Command: "echo 'Session ended'"}},
		})
	}

	if len(hooks) == 0 {
		return nil
	}
	return hooks
}

func matchesAny(items []string, substrs ...string) bool {
	for _, item := range items {
		lower := strings.ToLower(item)
		for _, sub := range substrs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

func dedupeSorted(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// --- memory system ---

func (g *configGenerator) renderMemorySystem(answers *models.QuestionnaireAnswers) []models.GeneratedFile {
	identity := answers.IdentityPhrase
	if identity == "" {
		identity = "Boss"
	}
	date := g.now().Format("2006-01-02")

	return []models.GeneratedFile{
		{
			Path: "docs/memory/session_log.md",
			Content: fmt.Sprintf(`# Session Log

Chronicle of work sessions. Append-only.

---

## %s

**Session:** Configuration created
**Actions:** Initial setup
**Next:** Review generated configuration with %s

---

<!-- New sessions will be appended below -->
`, date, identity),
			Description: "Session chronicle",
		},
		{
			Path: "docs/memory/mistakes.md",
			Content: `# Mistakes Log

Record of mistakes to avoid repeating. Read before every task.

---

<!--
Format:
### [Date] - [Category]: [Brief Title]
**Context:** What happened
**Rule:** ALWAYS/NEVER statement
-->

<!-- New mistakes will be appended below -->
`,
			Description: "Mistake log",
		},
		{
			Path: "docs/memory/decisions.md",
			Content: `# Decisions Log

Record of significant decisions. Don't re-debate decided topics.

---

<!--
Format:
### [Date] - [Topic]
**Decision:** What was decided
**Reasoning:** Why this choice
**Alternatives:** What was considered
-->

<!-- New decisions will be appended below -->
`,
			Description: "Decision log",
		},
		{
			Path: "docs/memory/discoveries.md",
			Content: `# Discoveries Log

Insights and patterns discovered during work.

---

<!--
Format:
### [Date] - [Topic]
**Discovery:** What was learned
**Application:** How to use this knowledge
-->

<!-- New discoveries will be appended below -->
`,
			Description: "Discovery log",
		},
	}
}

// --- agents ---

type agentTemplate struct {
	slug        string
	description string
	tools       string
	body        string
}

// agentTemplates in render order. Matching against the enable list is by
// slug substring, case-insensitive.
var agentTemplates = []agentTemplate{
	{
		slug:        "code-reviewer",
		description: "Autonomous code quality and security reviewer",
		tools:       "Read, Grep, Glob, Bash(git:*)",
		body: `# Code Review Specialist

You are a senior code reviewer focused on quality, security, and maintainability.

## Your Responsibilities
1. Review code for security vulnerabilities
2. Identify performance issues and anti-patterns
3. Check for best practices violations
4. Ensure adequate test coverage

## Output Format
Provide findings categorized by severity:
- **CRITICAL:** Security vulnerabilities, data loss risks
- **HIGH:** Logic errors, missing error handling
- **MEDIUM:** Code quality, performance concerns
- **LOW:** Style, documentation suggestions
`,
	},
	{
		slug:        "architect",
		description: "System design and architecture advisor",
		tools:       "Read, Grep, Glob",
		body: `# Architecture Advisor

You provide guidance on system design and architecture decisions.

## Your Responsibilities
1. Evaluate architectural trade-offs
2. Suggest design patterns
3. Identify potential scaling issues
4. Recommend separation of concerns
`,
	},
	{
		slug:        "researcher",
		description: "Deep research and investigation specialist",
		tools:       "Read, Grep, Glob, Bash(curl:*)",
		body: `# Research Specialist

You conduct deep investigations into technical topics.

## Your Responsibilities
1. Research best practices and patterns
2. Investigate library options
3. Analyze existing implementations
4. Synthesize findings into recommendations
`,
	},
	{
		slug:        "debugger",
		description: "Error analysis and debugging specialist",
		tools:       "Read, Grep, Glob, Bash(git:*)",
		body: `# Debugging Specialist

You analyze errors and help resolve issues.

## Your Responsibilities
1. Analyze stack traces and error messages
2. Identify root causes
3. Suggest fixes with explanations
4. Verify fixes work correctly
`,
	},
	{
		slug:        "security-auditor",
		description: "Security vulnerability scanner",
		tools:       "Read, Grep, Glob",
		body: `# Security Auditor

You scan code for security vulnerabilities.

## Focus Areas
1. Injection vulnerabilities (SQL, command, XSS)
2. Authentication and authorization issues
3. Secrets exposure
4. Insecure dependencies
5. OWASP Top 10 violations
`,
	},
}

func renderAgents(answers *models.QuestionnaireAnswers) []models.GeneratedFile {
	var files []models.GeneratedFile
	for _, tmpl := range agentTemplates {
		if !selectedBySlug(answers.EnableAgents, tmpl.slug) {
			continue
		}
		content := fmt.Sprintf(`---
name: %s
description: %s
tools: %s
---

%s`, tmpl.slug, tmpl.description, tmpl.tools, tmpl.body)
		files = append(files, models.GeneratedFile{
			Path:        ".claude/agents/" + tmpl.slug + ".md",
			Content:     content,
			Description: tmpl.description,
		})
	}
	return files
}

// --- commands ---

type commandTemplate struct {
	slug        string
	description string
	tools       string
	body        string
}

var commandTemplates = []commandTemplate{
	{
		slug:        "reflect",
		description: "Reflect on a mistake and codify the learning",
		tools:       "Read, Write, Edit",
		body: `# Self-Reflection Protocol

You just encountered an issue. Follow this protocol:

## Step 1: Reflect
Analyze what went wrong. Consider:
- What was the root cause?
- What signals did you miss?

## Step 2: Abstract
Extract the general pattern from this specific instance.

## Step 3: Document
Append your learning to .claude/rules/learned_lessons.md.
`,
	},
	{
		slug:        "review",
		description: "Run code review on changes",
		tools:       "Read, Grep, Glob, Bash(git:*)",
		body: `# Code Review Workflow

Run a comprehensive code review on the specified scope.

## Usage
- /review staged - Review staged changes
- /review branch - Review current branch vs main
- /review file path/to/file - Review specific file

## Process
1. Get the diff for the specified scope
2. Analyze for issues
3. Provide findings by severity
`,
	},
	{
		slug:        "standup",
		description: "Generate daily standup summary",
		tools:       "Read, Bash(git:*)",
		body: `# Daily Standup Summary

Generate a summary for daily standup.

## Output Format
**Yesterday:** What was completed
**Today:** What's planned
**Blockers:** Any issues
`,
	},
	{
		slug:        "research",
		description: "Deep research on a topic",
		tools:       "Read, Grep, Glob, Bash(curl:*)",
		body: `# Deep Research Mode

Conduct thorough research on the specified topic.

## Process
1. Gather information from multiple sources
2. Analyze and synthesize findings
3. Provide recommendations with citations
`,
	},
	{
		slug:        "check",
		description: "Pre-commit verification checklist",
		tools:       "Read, Bash(git:*)",
		body: `# Pre-Commit Checklist

Verify changes are ready to commit.

## Checks
- [ ] All tests pass
- [ ] Linting passes
- [ ] No secrets in diff
- [ ] Documentation updated
- [ ] Commit message follows conventions
`,
	},
}

func renderCommands(answers *models.QuestionnaireAnswers) []models.GeneratedFile {
	var files []models.GeneratedFile
	for _, tmpl := range commandTemplates {
		if !selectedBySlug(answers.EnableCommands, tmpl.slug) {
			continue
		}
		content := fmt.Sprintf(`---
allowed-tools: %s
description: %s
---

%s`, tmpl.tools, tmpl.description, tmpl.body)
		files = append(files, models.GeneratedFile{
			Path:        ".claude/commands/" + tmpl.slug + ".md",
			Content:     content,
			Description: tmpl.description,
		})
	}
	return files
}

// selectedBySlug reports whether any enable entry refers to the slug.
// Entries may be the slug itself or a longer label containing it.
func selectedBySlug(enabled []string, slug string) bool {
	needle := strings.ReplaceAll(slug, "-", " ")
	for _, item := range enabled {
		lower := strings.ToLower(strings.ReplaceAll(item, "-", " "))
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// --- models.json ---

type modelEntry struct {
	Enabled     bool    `json:"enabled"`
	Model       string  `json:"model"`
	DisplayName string  `json:"display_name"`
	APIKeyEnv   string  `json:"api_key_env"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type modelsDoc struct {
	Description string                `json:"description"`
	Models      map[string]modelEntry `json:"models"`
	Defaults    map[string]any        `json:"defaults"`
}

func renderModelsJSON(answers *models.QuestionnaireAnswers) (models.GeneratedFile, error) {
	entries := map[string]modelEntry{
		"openai": {
			Enabled:     true,
			Model:       "gpt-5.2-codex",
			DisplayName: "OpenAI GPT-5.2 Codex",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   4096,
			Temperature: 0.1,
		},
		"gemini": {
			Enabled:     true,
			Model:       "gemini-3-pro-preview",
			DisplayName: "Google Gemini 3 Pro",
			APIKeyEnv:   "GEMINI_API_KEY",
			MaxTokens:   8192,
			Temperature: 0.1,
		},
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := modelsDoc{
		Description: "Model configuration for multi-model tasks",
		Models:      entries,
		Defaults: map[string]any{
			"code_review": map[string]any{"models": names},
		},
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.GeneratedFile{}, err
	}
	return models.GeneratedFile{
		Path:        "models.json",
		Content:     string(content) + "\n",
		Description: "Multi-model configuration",
	}, nil
}

// --- rules ---

func renderRules(answers *models.QuestionnaireAnswers) []models.GeneratedFile {
	files := []models.GeneratedFile{{
		Path: ".claude/rules/learned_lessons.md",
		Content: `# Learned Lessons

This file contains codified learnings from past mistakes. Read this before starting any task.

---

<!--
Format for new entries:

### [Date] - [Category]: [Brief Title]
**Context:** [1-2 sentences on what happened]
**Rule:** [ALWAYS/NEVER statement]
-->

<!-- New learnings will be appended below this line -->
`,
		Description: "Lesson log",
	}}

	highSecurity := answers.SecurityLevel == models.SecurityHigh || answers.SecurityLevel == models.SecurityMaximum
	var safety string
	if highSecurity {
		safety = `# Safety Rules

These rules are NON-NEGOTIABLE. They exist to prevent catastrophic mistakes.

---

## File System Safety

### NEVER modify these files without explicit human approval:
- .env or any .env.* files
- Lock files (package-lock.json, etc.)
- .git/ directory contents
- Production configuration files
- Database migration files

### NEVER delete:
- Directories recursively without listing contents first
- Files matching broad glob patterns
- Anything in / or ~ directories

---

## Execution Safety

### NEVER run:
- rm -rf on directories you didn't create
- Commands with sudo
- Scripts downloaded from the internet without review
- Database migrations on production

### ALWAYS:
- Run tests after code changes
- Check git status before committing
- Create backups before bulk operations
- Use --dry-run flags when available

---

## Secret Safety

### NEVER:
- Commit secrets to git
- Log sensitive data
- Include real credentials in samples

### ALWAYS:
- Use environment variables for secrets
- Check .gitignore includes secret files
`
	} else {
		safety = `# Safety Rules

Basic safety guidelines for this configuration.

---

## Core Rules

- NEVER commit secrets to git
- NEVER run destructive commands without confirmation
- ALWAYS run tests before committing
- ALWAYS check git status before operations
`
	}

	files = append(files, models.GeneratedFile{
		Path:        ".claude/rules/safety.md",
		Content:     safety,
		Description: "Safety rules",
	})
	return files
}
