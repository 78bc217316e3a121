// Package validator checks generated and on-disk configurations for
// structural problems, missing sections, and hardcoded credentials.
// Validation results are advisory data: callers decide whether a low
// score blocks anything.
package validator

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// maxClaudeMDBytes flags unwieldy main configuration files.
const maxClaudeMDBytes = 50_000

type namedPattern struct {
	re          *regexp.Regexp
	description string
}

// Required sections of the main configuration file.
var requiredPatterns = []namedPattern{
	{regexp.MustCompile(`[Aa]ddress me as ["']?\w+`), "identity confirmation pattern"},
	{regexp.MustCompile(`## Tech Stack|## Technology|## Stack`), "tech stack section"},
	{regexp.MustCompile(`## Before|## Pre-task|## Setup`), "before-task checklist"},
}

// Recommended but optional sections.
var recommendedPatterns = []namedPattern{
	{regexp.MustCompile(`(?i)context compression|compression recovery`), "context recovery section"},
	{regexp.MustCompile(`## After|## Post-task|## Cleanup`), "after-task checklist"},
	{regexp.MustCompile(`NEVER|never commit|never hardcode`), "security warnings"},
}

// Credential shapes that must never appear in generated output.
var dangerousPatterns = []namedPattern{
	{regexp.MustCompile(`(?i)api_key\s*[:=]\s*["'][a-zA-Z0-9]{20,}`), "Hardcoded API key detected"},
	{regexp.MustCompile(`(?i)password\s*[:=]\s*["'][^"']+["']`), "Hardcoded password detected"},
	{regexp.MustCompile(`(?i)secret\s*[:=]\s*["'][^"']+["']`), "Hardcoded secret detected"},
}

var essentialDenials = []string{"rm -rf /", "sudo"}

// ConfigValidator checks configurations before writing and on disk.
type ConfigValidator interface {
	ValidateFiles(files []models.GeneratedFile) (*models.ValidationReport, error)
	ValidatePath(path string) (*models.ValidationReport, error)
}

type configValidator struct{}

// NewConfigValidator creates a ConfigValidator.
func NewConfigValidator() ConfigValidator {
	return &configValidator{}
}

// ValidateFiles checks a generated file set in memory, before anything
// touches the filesystem.
func (v *configValidator) ValidateFiles(files []models.GeneratedFile) (*models.ValidationReport, error) {
	var issues []models.ValidationIssue
	passed, total := 0, 0

	for _, f := range files {
		total++
		fileIssues := validateContent(f.Path, f.Content)
		issues = append(issues, fileIssues...)
		if !hasCritical(fileIssues) {
			passed++
		}
	}

	// The main configuration file gets section checks on top.
	for _, f := range files {
		if f.Path != "CLAUDE.md" {
			continue
		}
		total++
		mdIssues := validateClaudeMD(f.Path, f.Content)
		issues = append(issues, mdIssues...)
		if !hasCritical(mdIssues) {
			passed++
		}
	}

	// Settings structure check when present.
	for _, f := range files {
		if filepath.Base(f.Path) != "settings.json" {
			continue
		}
		total++
		sIssues := validateSettings(f.Path, []byte(f.Content))
		issues = append(issues, sIssues...)
		if !hasCritical(sIssues) {
			passed++
		}
	}

	return buildReport(issues, passed, total), nil
}

// ValidatePath checks an existing configuration directory on disk.
func (v *configValidator) ValidatePath(path string) (*models.ValidationReport, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening configuration %s: %w", path, err)
	}

	var issues []models.ValidationIssue
	passed, total := 0, 0

	claudeMD := filepath.Join(path, "CLAUDE.md")
	if content, err := os.ReadFile(claudeMD); err == nil {
		total++
		mdIssues := validateClaudeMD("CLAUDE.md", string(content))
		mdIssues = append(mdIssues, validateContent("CLAUDE.md", string(content))...)
		issues = append(issues, mdIssues...)
		if !hasCritical(mdIssues) {
			passed++
		}
	} else {
		issues = append(issues, models.ValidationIssue{
			Severity: models.SeverityCritical,
			File:     "CLAUDE.md",
			Message:  "Missing CLAUDE.md file",
			Fix:      "Create a CLAUDE.md file with your configuration",
		})
	}

	settingsPath := filepath.Join(path, ".claude", "settings.json")
	if content, err := os.ReadFile(settingsPath); err == nil {
		total++
		sIssues := validateSettings(".claude/settings.json", content)
		issues = append(issues, sIssues...)
		if !hasCritical(sIssues) {
			passed++
		}
	}

	for _, sub := range []string{"agents", "commands"} {
		dir := filepath.Join(path, ".claude", sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			total++
			rel := filepath.Join(".claude", sub, entry.Name())
			content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			fmIssues := validateFrontmatter(rel, string(content))
			issues = append(issues, fmIssues...)
			if !hasCritical(fmIssues) {
				passed++
			}
		}
	}

	total++
	secretIssues := scanForSecrets(path)
	issues = append(issues, secretIssues...)
	if !hasCritical(secretIssues) {
		passed++
	}

	return buildReport(issues, passed, total), nil
}

// validateContent runs the credential scan and JSON syntax check on one
// file's content.
func validateContent(path, content string) []models.ValidationIssue {
	var issues []models.ValidationIssue

	for _, p := range dangerousPatterns {
		if loc := p.re.FindStringIndex(content); loc != nil {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityCritical,
				File:     path,
				Line:     lineAt(content, loc[0]),
				Message:  p.description,
				Fix:      "Remove hardcoded credentials and use environment variables",
			})
		}
	}

	if strings.HasSuffix(path, ".json") {
		if !json.Valid([]byte(content)) {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityCritical,
				File:     path,
				Message:  "Invalid JSON",
				Fix:      "Fix the JSON syntax error",
			})
		}
	}

	return issues
}

func validateClaudeMD(path, content string) []models.ValidationIssue {
	var issues []models.ValidationIssue

	for _, p := range requiredPatterns {
		if !p.re.MatchString(content) {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityWarning,
				File:     path,
				Message:  "Missing " + p.description,
				Fix:      "Add " + p.description + " to CLAUDE.md",
			})
		}
	}
	for _, p := range recommendedPatterns {
		if !p.re.MatchString(content) {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityInfo,
				File:     path,
				Message:  "Consider adding " + p.description,
			})
		}
	}
	if len(content) > maxClaudeMDBytes {
		issues = append(issues, models.ValidationIssue{
			Severity: models.SeverityWarning,
			File:     path,
			Message:  "CLAUDE.md is very large (>50KB)",
			Fix:      "Consider breaking into multiple files for readability",
		})
	}

	return issues
}

// settingsShape mirrors the subset of settings.json the validator checks.
type settingsShape struct {
	Permissions struct {
		Allow []string `json:"allow"`
		Deny  []string `json:"deny"`
	} `json:"permissions"`
	Hooks map[string]json.RawMessage `json:"hooks"`
}

func validateSettings(path string, content []byte) []models.ValidationIssue {
	var issues []models.ValidationIssue

	var settings settingsShape
	if err := json.Unmarshal(content, &settings); err != nil {
		return []models.ValidationIssue{{
			Severity: models.SeverityCritical,
			File:     path,
			Message:  fmt.Sprintf("Invalid JSON: %v", err),
			Fix:      "Fix the JSON syntax",
		}}
	}

	if len(settings.Permissions.Allow) == 0 {
		issues = append(issues, models.ValidationIssue{
			Severity: models.SeverityWarning,
			File:     path,
			Message:  "No tools in allow list",
			Fix:      "Add at least basic tools to the allow list",
		})
	}

	for _, denial := range essentialDenials {
		found := false
		for _, d := range settings.Permissions.Deny {
			if strings.Contains(d, denial) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityWarning,
				File:     path,
				Message:  "Missing essential denial: " + denial,
				Fix:      fmt.Sprintf("Add %q to deny list for safety", denial),
			})
		}
	}

	for event, raw := range settings.Hooks {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityCritical,
				File:     path,
				Message:  fmt.Sprintf("Hook %s should be a list", event),
				Fix:      "Wrap hook configuration in an array",
			})
		}
	}

	return issues
}

func validateFrontmatter(path, content string) []models.ValidationIssue {
	var issues []models.ValidationIssue

	if !strings.HasPrefix(content, "---") {
		issues = append(issues, models.ValidationIssue{
			Severity: models.SeverityWarning,
			File:     path,
			Line:     1,
			Message:  "Missing YAML frontmatter",
			Fix:      "Add a frontmatter block at the top",
		})
		return issues
	}

	head := content
	if len(head) > 500 {
		head = head[:500]
	}
	for _, field := range []string{"name:", "description:"} {
		// Command files only need a description.
		if field == "name:" && strings.Contains(path, "commands") {
			continue
		}
		if !strings.Contains(head, field) {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityWarning,
				File:     path,
				Message:  "Missing " + strings.TrimSuffix(field, ":") + " in frontmatter",
			})
		}
	}

	return issues
}

// scanForSecrets walks every text file under root looking for credential
// shapes. Unreadable files are skipped.
func scanForSecrets(root string) []models.ValidationIssue {
	var issues []models.ValidationIssue

	textExts := map[string]bool{".md": true, ".json": true, ".txt": true, ".yaml": true, ".yml": true}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !textExts[filepath.Ext(path)] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		for _, p := range dangerousPatterns {
			if p.re.Match(content) {
				issues = append(issues, models.ValidationIssue{
					Severity: models.SeverityCritical,
					File:     rel,
					Message:  p.description,
					Fix:      "Remove hardcoded credentials immediately",
				})
			}
		}
		return nil
	})

	return issues
}

func hasCritical(issues []models.ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

func lineAt(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}

func buildReport(issues []models.ValidationIssue, passed, total int) *models.ValidationReport {
	criticalCount, warningCount := 0, 0
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityCritical:
			criticalCount++
		case models.SeverityWarning:
			warningCount++
		}
	}

	score := 100
	if total > 0 {
		score = passed * 100 / total
	}

	var summary string
	switch {
	case criticalCount > 0:
		summary = fmt.Sprintf("%d error(s) must be fixed", criticalCount)
	case warningCount > 0:
		summary = fmt.Sprintf("%d warning(s) to review", warningCount)
	default:
		summary = "Configuration is valid"
	}

	return &models.ValidationReport{
		IsValid:      criticalCount == 0,
		Issues:       issues,
		Score:        score,
		Summary:      summary,
		ChecksPassed: passed,
		ChecksTotal:  total,
	}
}
