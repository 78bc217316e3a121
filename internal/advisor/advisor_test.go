package advisor

import (
	"strings"
	"testing"

	"github.com/mlehotay/confpilot/pkg/models"
)

func solidAnswers() *models.QuestionnaireAnswers {
	return &models.QuestionnaireAnswers{
		ConfigName:        "test",
		Purpose:           models.PurposeSolo,
		AutonomyLevel:     models.AutonomySeniorDev,
		SecurityLevel:     models.SecurityStandard,
		AllowFileDeletion: models.DeletionLimited,
		EnableCommands:    []string{"/review", "/reflect"},
		EnableHooks:       []string{"post-edit format"},
	}
}

func hasConcern(result *models.AnalysisResult, substr string) bool {
	for _, c := range result.Concerns {
		if strings.Contains(c.Message, substr) {
			return true
		}
	}
	return false
}

func TestAnalyzeChoices_SolidConfiguration(t *testing.T) {
	advisor := NewCriticalAdvisor()

	result, err := advisor.AnalyzeChoices(solidAnswers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid result, concerns: %+v", result.Concerns)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}
	if result.Summary != "Configuration looks solid" {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
}

func TestAnalyzeChoices_EnterpriseWithoutHighSecurity(t *testing.T) {
	advisor := NewCriticalAdvisor()
	answers := solidAnswers()
	answers.Purpose = models.PurposeEnterprise
	answers.SecurityLevel = models.SecurityStandard

	result, err := advisor.AnalyzeChoices(answers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsValid {
		t.Fatal("enterprise with standard security must be invalid")
	}
	if !hasConcern(result, "Enterprise use case requires a higher security level") {
		t.Fatalf("expected the enterprise security concern, got %+v", result.Concerns)
	}
	if !strings.Contains(result.Summary, "critical issue") {
		t.Fatalf("summary should mention critical issues: %q", result.Summary)
	}

	// Maximum security resolves the critical concern.
	answers.SecurityLevel = models.SecurityMaximum
	result, _ = advisor.AnalyzeChoices(answers)
	if hasConcern(result, "Enterprise use case requires a higher security level") {
		t.Fatal("maximum security should satisfy the enterprise rule")
	}
}

func TestAnalyzeChoices_CoFounderRelaxedSecurity(t *testing.T) {
	advisor := NewCriticalAdvisor()
	answers := solidAnswers()
	answers.AutonomyLevel = models.AutonomyCoFounder
	answers.SecurityLevel = models.SecurityRelaxed
	answers.EnableMemory = true
	answers.EnableCommands = append(answers.EnableCommands, "/reflect")

	result, _ := advisor.AnalyzeChoices(answers)
	if !result.IsValid {
		t.Fatal("warnings alone must not invalidate the configuration")
	}
	if !hasConcern(result, "High autonomy with relaxed security") {
		t.Fatalf("expected the relaxed-security warning, got %+v", result.Concerns)
	}
}

func TestAnalyzeChoices_TechStackMismatches(t *testing.T) {
	advisor := NewCriticalAdvisor()

	answers := solidAnswers()
	answers.Stack = models.TechStack{PrimaryLanguage: "Python", PackageManager: "npm"}
	result, _ := advisor.AnalyzeChoices(answers)
	if !hasConcern(result, "Python language with a JavaScript package manager") {
		t.Fatal("expected the python/npm warning")
	}

	answers = solidAnswers()
	answers.Stack = models.TechStack{PrimaryLanguage: "TypeScript", TestRunner: "pytest"}
	result, _ = advisor.AnalyzeChoices(answers)
	if !hasConcern(result, "JavaScript project with a non-JavaScript test runner") {
		t.Fatal("expected the test runner warning")
	}
}

func TestAnalyzeChoices_FeatureCoherence(t *testing.T) {
	advisor := NewCriticalAdvisor()

	answers := solidAnswers()
	answers.EnableMultiModel = true
	answers.EnableCommands = []string{"/deploy"}
	result, _ := advisor.AnalyzeChoices(answers)
	if !hasConcern(result, "Multi-model review enabled but no review command") {
		t.Fatal("expected the missing review command suggestion")
	}

	answers = solidAnswers()
	answers.EnableAgents = []string{"Code Reviewer"}
	answers.EnableMultiModel = false
	result, _ = advisor.AnalyzeChoices(answers)
	if !hasConcern(result, "Code reviewer agent without multi-model review") {
		t.Fatal("expected the code-reviewer suggestion")
	}
}

func TestAnalyzeChoices_ScoreFloorsAtZero(t *testing.T) {
	advisor := NewCriticalAdvisor()
	// Pile up critical and warning concerns.
	answers := &models.QuestionnaireAnswers{
		Purpose:           models.PurposeEnterprise,
		AutonomyLevel:     models.AutonomyCoFounder,
		SecurityLevel:     models.SecurityRelaxed,
		AllowFileDeletion: models.DeletionFull,
		Stack:             models.TechStack{PrimaryLanguage: "Python", PackageManager: "npm", TestRunner: "pytest"},
	}

	result, _ := advisor.AnalyzeChoices(answers)
	if result.Score < 0 {
		t.Fatalf("score must not go negative, got %d", result.Score)
	}
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
}

func TestSuggestImprovements_EnterpriseSecurity(t *testing.T) {
	advisor := NewCriticalAdvisor()
	answers := solidAnswers()
	answers.Purpose = models.PurposeEnterprise
	answers.SecurityLevel = models.SecurityStandard

	result, _ := advisor.AnalyzeChoices(answers)
	improvements := advisor.SuggestImprovements(answers, result)

	if improvements["security_level"] != string(models.SecurityHigh) {
		t.Fatalf("expected security_level=high suggestion, got %v", improvements)
	}
}

func TestSummarize_WarningThreshold(t *testing.T) {
	if got := summarize(0, 3, 3); !strings.Contains(got, "3 warnings") {
		t.Fatalf("expected warning summary, got %q", got)
	}
	if got := summarize(0, 2, 2); got != "Minor suggestions available for optimization" {
		t.Fatalf("two warnings should fall through to suggestions, got %q", got)
	}
}
