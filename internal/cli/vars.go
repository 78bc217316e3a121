package cli

import (
	"github.com/mlehotay/confpilot/internal/advisor"
	"github.com/mlehotay/confpilot/internal/analyzer"
	"github.com/mlehotay/confpilot/internal/generator"
	"github.com/mlehotay/confpilot/internal/observability"
	"github.com/mlehotay/confpilot/internal/pipeline"
	"github.com/mlehotay/confpilot/internal/research"
	"github.com/mlehotay/confpilot/internal/review"
	"github.com/mlehotay/confpilot/internal/setup"
	"github.com/mlehotay/confpilot/internal/storage"
	"github.com/mlehotay/confpilot/internal/validator"
	"github.com/mlehotay/confpilot/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig

	Wizard       *setup.Wizard
	KeyMgr       *setup.APIKeyManager
	ProfileStore storage.ProfileStoreManager

	Analyzer  analyzer.ConfigAnalyzer
	Research  research.BestPracticesResearcher
	Advisor   advisor.CriticalAdvisor
	Generator generator.ConfigGenerator
	Validator validator.ConfigValidator
	Reviewer  review.ConfigReviewer

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator

	// Events adapts EventLog for the pipeline and aggregator; nil when
	// observability is disabled.
	Events pipeline.EventLogger
)
