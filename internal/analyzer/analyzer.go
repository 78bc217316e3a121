// Package analyzer discovers reusable patterns in existing AI assistant
// configurations: agent definitions, slash commands, hooks, and
// permission rules.
package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// headingPattern captures the first markdown heading of an agent or
// command definition file.
var headingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ConfigAnalyzer scans a directory tree of existing configurations.
type ConfigAnalyzer interface {
	Analyze(path string) (*models.AnalysisPatterns, error)
}

type configAnalyzer struct{}

// NewConfigAnalyzer creates a ConfigAnalyzer.
func NewConfigAnalyzer() ConfigAnalyzer {
	return &configAnalyzer{}
}

// Analyze walks the given directory and extracts patterns from every
// configuration found. A missing or empty directory is not an error:
// the result is simply empty.
func (a *configAnalyzer) Analyze(path string) (*models.AnalysisPatterns, error) {
	patterns := &models.AnalysisPatterns{}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return patterns, nil
		}
		return nil, fmt.Errorf("reading configs directory: %w", err)
	}

	// The directory may itself be a single configuration.
	if isConfigDir(path) {
		a.analyzeConfig(path, filepath.Base(path), patterns)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(path, entry.Name())
		if isConfigDir(dir) {
			a.analyzeConfig(dir, entry.Name(), patterns)
		}
	}

	return patterns, nil
}

// isConfigDir reports whether dir looks like an assistant configuration.
func isConfigDir(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "CLAUDE.md")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, ".claude")); err == nil {
		return true
	}
	return false
}

// analyzeConfig extracts all pattern kinds from one configuration directory.
func (a *configAnalyzer) analyzeConfig(dir, name string, patterns *models.AnalysisPatterns) {
	patterns.Configs = append(patterns.Configs, name)

	patterns.Agents = append(patterns.Agents,
		collectMarkdownEntries(filepath.Join(dir, ".claude", "agents"), "agent")...)
	patterns.Commands = append(patterns.Commands,
		collectMarkdownEntries(filepath.Join(dir, ".claude", "commands"), "command")...)

	settingsPath := filepath.Join(dir, ".claude", "settings.json")
	hooks, perms := parseSettings(settingsPath)
	patterns.Hooks = append(patterns.Hooks, hooks...)
	patterns.Permissions = append(patterns.Permissions, perms...)
}

// collectMarkdownEntries lists *.md files in dir as pattern entries of
// the given kind, using the first heading as the description.
func collectMarkdownEntries(dir, kind string) []models.PatternEntry {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var entries []models.PatternEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		entry := models.PatternEntry{
			Name:       strings.TrimSuffix(f.Name(), ".md"),
			Kind:       kind,
			SourceFile: path,
		}
		if content, err := os.ReadFile(path); err == nil {
			if m := headingPattern.FindSubmatch(content); m != nil {
				entry.Description = strings.TrimSpace(string(m[1]))
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// settingsFile mirrors the subset of .claude/settings.json the analyzer
// cares about.
type settingsFile struct {
	Permissions struct {
		Allow []string `json:"allow"`
		Deny  []string `json:"deny"`
	} `json:"permissions"`
	Hooks map[string][]json.RawMessage `json:"hooks"`
}

// parseSettings extracts hook and permission patterns from a
// settings.json file. Malformed or missing files contribute nothing.
func parseSettings(path string) (hooks, perms []models.PatternEntry) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	var settings settingsFile
	if err := json.Unmarshal(content, &settings); err != nil {
		return nil, nil
	}

	for event := range settings.Hooks {
		hooks = append(hooks, models.PatternEntry{
			Name:       event,
			Kind:       "hook",
			SourceFile: path,
		})
	}
	for _, rule := range settings.Permissions.Allow {
		perms = append(perms, models.PatternEntry{
			Name:        rule,
			Kind:        "permission",
			SourceFile:  path,
			Description: "allow",
		})
	}
	for _, rule := range settings.Permissions.Deny {
		perms = append(perms, models.PatternEntry{
			Name:        rule,
			Kind:        "permission",
			SourceFile:  path,
			Description: "deny",
		})
	}
	return hooks, perms
}
