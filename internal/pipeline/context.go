package pipeline

import (
	"github.com/google/uuid"

	"github.com/mlehotay/confpilot/pkg/models"
)

// Context is the accumulating state record threaded through the pipeline.
// Each field is populated exactly once by its owning stage and never
// overwritten afterward; sequence fields are append-only within a run.
// CompletedStages grows monotonically and is the only state interpreted
// across a resume.
type Context struct {
	RunID string

	// Set by the setup stage; read-only afterward.
	Profile *models.UserProfile

	// Owned by the questionnaire stage; read by analysis, generation,
	// validation, review, and write.
	Answers *models.QuestionnaireAnswers

	// Findings from discovery and research; never mutated after being set.
	Patterns *models.AnalysisPatterns
	Research *models.ResearchResults

	// Outcome of the critical analysis stage.
	Analysis *models.AnalysisResult

	// Produced once by generation; append-only within a run.
	GeneratedFiles []models.GeneratedFile

	// Write-once outputs of validation and review.
	Validation   *models.ValidationReport
	ReviewIssues []models.Finding

	CurrentStage    string
	CompletedStages []string
}

// NewContext creates an empty Context with a fresh run ID.
func NewContext() *Context {
	return &Context{RunID: uuid.NewString()}
}

// Completed reports whether the named stage finished successfully during
// this run (or the run this context was restored from).
func (c *Context) Completed(stageName string) bool {
	for _, name := range c.CompletedStages {
		if name == stageName {
			return true
		}
	}
	return false
}
