// Package advisor challenges questionnaire choices before generation:
// it flags risky combinations, incoherent feature sets, and missing
// essentials, and scores the overall configuration.
package advisor

import (
	"fmt"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// Score penalties per concern severity.
const (
	criticalPenalty   = 25
	warningPenalty    = 10
	suggestionPenalty = 3
)

// CriticalAdvisor analyzes questionnaire answers for problems.
type CriticalAdvisor interface {
	AnalyzeChoices(answers *models.QuestionnaireAnswers) (*models.AnalysisResult, error)
	SuggestImprovements(answers *models.QuestionnaireAnswers, result *models.AnalysisResult) map[string]string
}

type criticalAdvisor struct{}

// NewCriticalAdvisor creates a CriticalAdvisor.
func NewCriticalAdvisor() CriticalAdvisor {
	return &criticalAdvisor{}
}

// AnalyzeChoices runs every rule set over the answers and returns the
// combined result. The result is invalid only when a critical concern
// was raised.
func (a *criticalAdvisor) AnalyzeChoices(answers *models.QuestionnaireAnswers) (*models.AnalysisResult, error) {
	var concerns []models.Concern
	concerns = append(concerns, checkSecurityChoices(*answers)...)
	concerns = append(concerns, checkAutonomyChoices(*answers)...)
	concerns = append(concerns, checkFeatureCoherence(*answers)...)
	concerns = append(concerns, checkTechStackAlignment(*answers)...)
	concerns = append(concerns, checkMissingEssentials(*answers)...)

	criticalCount := 0
	warningCount := 0
	for _, c := range concerns {
		switch c.Severity {
		case models.SeverityCritical:
			criticalCount++
		case models.SeverityWarning:
			warningCount++
		}
	}

	return &models.AnalysisResult{
		IsValid:  criticalCount == 0,
		Concerns: concerns,
		Score:    score(concerns),
		Summary:  summarize(criticalCount, warningCount, len(concerns)),
	}, nil
}

// SuggestImprovements maps critical concerns to concrete answer changes.
func (a *criticalAdvisor) SuggestImprovements(answers *models.QuestionnaireAnswers, result *models.AnalysisResult) map[string]string {
	improvements := make(map[string]string)
	for _, c := range result.Concerns {
		if c.Severity != models.SeverityCritical {
			continue
		}
		if c.Category == models.CategorySecurity && answers.Purpose == models.PurposeEnterprise {
			improvements["security_level"] = string(models.SecurityHigh)
		}
	}
	return improvements
}

func checkSecurityChoices(answers models.QuestionnaireAnswers) []models.Concern {
	var concerns []models.Concern

	if answers.AutonomyLevel == models.AutonomyCoFounder && answers.SecurityLevel == models.SecurityRelaxed {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityWarning,
			Category:       models.CategorySecurity,
			Message:        "High autonomy with relaxed security may be risky",
			Question:       "Are you sure you want the assistant to operate with minimal restrictions?",
			Recommendation: "Consider standard security for co-founder mode to prevent accidental damage",
			Context:        "Co-founder mode grants significant freedom; relaxed security removes most safeguards.",
		})
	}

	if answers.Purpose == models.PurposeEnterprise &&
		answers.SecurityLevel != models.SecurityHigh && answers.SecurityLevel != models.SecurityMaximum {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityCritical,
			Category:       models.CategorySecurity,
			Message:        "Enterprise use case requires a higher security level",
			Question:       "Is this configuration for production systems?",
			Recommendation: "Switch to high or maximum security for enterprise deployments",
			Context:        "Enterprise systems typically require stricter controls to meet compliance requirements.",
		})
	}

	if answers.Purpose == models.PurposeEnterprise && answers.AllowFileDeletion == models.DeletionFull {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityWarning,
			Category:       models.CategorySecurity,
			Message:        "Unrestricted file deletion in an enterprise context",
			Question:       "Should the assistant be able to delete any file?",
			Recommendation: "Restrict deletion to files the assistant created",
			Context:        "Unrestricted deletion can cause significant issues in production environments.",
		})
	}

	if !answers.HasSecrets && answers.SecretsLocation != "" {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategorySecurity,
			Message:        "Secrets location specified but secrets not enabled",
			Question:       "Do you plan to use API keys or secrets?",
			Recommendation: "Enable secrets management for multi-model features",
			Context:        "Many advanced features require API keys.",
		})
	}

	return concerns
}

func checkAutonomyChoices(answers models.QuestionnaireAnswers) []models.Concern {
	var concerns []models.Concern

	if answers.AutonomyLevel == models.AutonomyCoFounder && !answers.EnableMemory {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityWarning,
			Category:       models.CategoryWorkflow,
			Message:        "Co-founder mode works best with the memory system",
			Question:       "Should the assistant remember context across sessions?",
			Recommendation: "Enable the memory system to maintain continuity",
			Context:        "Co-founders need to remember decisions, mistakes, and context to be effective.",
		})
	}

	if answers.Purpose == models.PurposeLearning && answers.AutonomyLevel == models.AutonomyAssistant {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryWorkflow,
			Message:        "Learning mode may benefit from more autonomy",
			Question:       "Do you want the assistant to guide your learning proactively?",
			Recommendation: "Consider senior-dev autonomy for more educational interactions",
			Context:        "Higher autonomy lets the assistant point out learning opportunities.",
		})
	}

	if answers.Purpose == models.PurposeSolo && answers.AutonomyLevel == models.AutonomyAssistant {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryWorkflow,
			Message:        "Solo developers often benefit from higher autonomy",
			Question:       "Do you want to spend less time directing the assistant?",
			Recommendation: "Consider co-founder or senior-dev autonomy for solo projects",
			Context:        "Without a team to review, an autonomous assistant can iterate faster.",
		})
	}

	return concerns
}

func checkFeatureCoherence(answers models.QuestionnaireAnswers) []models.Concern {
	var concerns []models.Concern

	if answers.EnableMultiModel && !containsFold(answers.EnableCommands, "review") {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryFeatures,
			Message:        "Multi-model review enabled but no review command",
			Question:       "How will you trigger multi-model reviews?",
			Recommendation: "Add a /review command to easily invoke multi-model reviews",
			Context:        "Multi-model review is most useful when accessible via a command.",
		})
	}

	if containsFold(answers.EnableAgents, "code reviewer") && !answers.EnableMultiModel {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryFeatures,
			Message:        "Code reviewer agent without multi-model review",
			Question:       "Would you like multiple perspectives on code reviews?",
			Recommendation: "Enable multi-model review for more comprehensive analysis",
			Context:        "Multiple models catch different types of issues.",
		})
	}

	if len(answers.EnableAgents) > 0 && len(answers.EnableHooks) == 0 {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryFeatures,
			Message:        "Agents enabled but no hooks configured",
			Question:       "Would automated triggers improve your workflow?",
			Recommendation: "Consider enabling hooks for automatic quality checks",
			Context:        "Hooks can trigger agents automatically at the right moments.",
		})
	}

	return concerns
}

func checkTechStackAlignment(answers models.QuestionnaireAnswers) []models.Concern {
	var concerns []models.Concern
	stack := answers.Stack

	jsManagers := map[string]bool{"npm": true, "pnpm": true, "yarn": true}
	if strings.Contains(strings.ToLower(stack.PrimaryLanguage), "python") && jsManagers[stack.PackageManager] {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityWarning,
			Category:       models.CategoryTechStack,
			Message:        "Python language with a JavaScript package manager",
			Question:       "Is your project actually a polyglot project?",
			Recommendation: "Use pip or poetry for Python projects, or select multiple languages",
			Context:        "Mismatched tools can cause confusion in generated commands.",
		})
	}

	lang := strings.ToLower(stack.PrimaryLanguage)
	if (strings.Contains(lang, "typescript") || strings.Contains(lang, "javascript")) &&
		(stack.TestRunner == "pytest" || stack.TestRunner == "go test") {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeverityWarning,
			Category:       models.CategoryTechStack,
			Message:        "JavaScript project with a non-JavaScript test runner",
			Question:       "What test framework do you actually use?",
			Recommendation: "Consider jest or vitest for JavaScript and TypeScript projects",
			Context:        "The test runner should match your actual project setup.",
		})
	}

	return concerns
}

func checkMissingEssentials(answers models.QuestionnaireAnswers) []models.Concern {
	var concerns []models.Concern

	if answers.EnableMemory && !containsFold(answers.EnableCommands, "reflect") {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryEssentials,
			Message:        "Memory system without reflection capability",
			Question:       "How will the assistant learn from mistakes?",
			Recommendation: "Add a /reflect command to enable learning from errors",
			Context:        "Reflection is key to improving the memory system's value.",
		})
	}

	highSecurity := answers.SecurityLevel == models.SecurityHigh || answers.SecurityLevel == models.SecurityMaximum
	if highSecurity && !containsFold(answers.EnableAgents, "security") {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryEssentials,
			Message:        "High security level without a security auditor agent",
			Question:       "Would automated security scanning help?",
			Recommendation: "Enable a security auditor agent for proactive vulnerability detection",
			Context:        "A security auditor can catch issues before they reach production.",
		})
	}

	if len(answers.EnableCommands) == 0 {
		concerns = append(concerns, models.Concern{
			Severity:       models.SeveritySuggestion,
			Category:       models.CategoryEssentials,
			Message:        "No slash commands configured",
			Question:       "Would quick commands improve your workflow?",
			Recommendation: "Consider adding at least /review and /reflect commands",
			Context:        "Commands provide quick access to common operations.",
		})
	}

	return concerns
}

// score derives a 0-100 confidence score from the raised concerns.
func score(concerns []models.Concern) int {
	s := 100
	for _, c := range concerns {
		switch c.Severity {
		case models.SeverityCritical:
			s -= criticalPenalty
		case models.SeverityWarning:
			s -= warningPenalty
		case models.SeveritySuggestion:
			s -= suggestionPenalty
		}
	}
	if s < 0 {
		return 0
	}
	return s
}

func summarize(criticalCount, warningCount, total int) string {
	switch {
	case criticalCount > 0:
		return fmt.Sprintf("Found %d critical issue(s) that should be addressed", criticalCount)
	case warningCount > 2:
		return fmt.Sprintf("Found %d warnings, configuration may need adjustment", warningCount)
	case total > 0:
		return "Minor suggestions available for optimization"
	default:
		return "Configuration looks solid"
	}
}

// containsFold reports whether any element of items contains substr,
// case-insensitively.
func containsFold(items []string, substr string) bool {
	substr = strings.ToLower(substr)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), substr) {
			return true
		}
	}
	return false
}
