// Package internal provides the App struct that wires all components of
// confpilot together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlehotay/confpilot/internal/advisor"
	"github.com/mlehotay/confpilot/internal/analyzer"
	"github.com/mlehotay/confpilot/internal/cli"
	"github.com/mlehotay/confpilot/internal/core"
	"github.com/mlehotay/confpilot/internal/generator"
	"github.com/mlehotay/confpilot/internal/observability"
	"github.com/mlehotay/confpilot/internal/research"
	"github.com/mlehotay/confpilot/internal/review"
	"github.com/mlehotay/confpilot/internal/setup"
	"github.com/mlehotay/confpilot/internal/storage"
	"github.com/mlehotay/confpilot/internal/validator"
	"github.com/mlehotay/confpilot/pkg/models"
)

// App holds all service dependencies for confpilot.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Setup and storage
	ProfileStore storage.ProfileStoreManager
	KeyMgr       *setup.APIKeyManager
	Wizard       *setup.Wizard

	// Pipeline services
	Analyzer  analyzer.ConfigAnalyzer
	Research  research.BestPracticesResearcher
	Advisor   advisor.CriticalAdvisor
	Generator generator.ConfigGenerator
	Validator validator.ConfigValidator
	Reviewer  review.ConfigReviewer

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the root directory
// where configuration, the profile, and the event log live (typically the
// directory containing .confpilotrc, or ~/.confpilot).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = globalCfg

	// --- Setup and storage ---
	app.ProfileStore = storage.NewProfileStoreManager(basePath)
	app.KeyMgr = setup.NewAPIKeyManager(basePath)
	app.Wizard = setup.NewWizard(app.ProfileStore, app.KeyMgr)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".confpilot_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	var events *eventLogAdapter
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		events = &eventLogAdapter{log: app.EventLog}
	}

	// --- Pipeline services ---
	sourceTimeout := time.Duration(globalCfg.SourceTimeoutMS) * time.Millisecond

	app.Analyzer = analyzer.NewConfigAnalyzer()
	app.Advisor = advisor.NewCriticalAdvisor()
	app.Generator = generator.NewConfigGenerator()
	app.Validator = validator.NewConfigValidator()

	// The adapter is typed; pass a nil interface when observability is off.
	if events != nil {
		app.Research = research.NewResearcher(sourceTimeout, events)
		app.Reviewer = review.NewConfigReviewer(review.ClientsFromConfig(globalCfg.Reviewers), sourceTimeout, events)
	} else {
		app.Research = research.NewResearcher(sourceTimeout, nil)
		app.Reviewer = review.NewConfigReviewer(review.ClientsFromConfig(globalCfg.Reviewers), sourceTimeout, nil)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = globalCfg
	cli.Wizard = app.Wizard
	cli.KeyMgr = app.KeyMgr
	cli.ProfileStore = app.ProfileStore

	cli.Analyzer = app.Analyzer
	cli.Research = app.Research
	cli.Advisor = app.Advisor
	cli.Generator = app.Generator
	cli.Validator = app.Validator
	cli.Reviewer = app.Reviewer

	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	if events != nil {
		cli.Events = events
	}

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base directory for confpilot data. It
// checks CONFPILOT_HOME, then walks up from the current directory looking
// for a .confpilotrc, then falls back to ~/.confpilot.
func ResolveBasePath() string {
	if home := os.Getenv("CONFPILOT_HOME"); home != "" {
		return home
	}

	dir, err := os.Getwd()
	if err == nil {
		for {
			if _, statErr := os.Stat(filepath.Join(dir, ".confpilotrc")); statErr == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	return filepath.Join(userHome, ".confpilot")
}

// eventLogAdapter adapts observability.EventLog to the LogEvent interface
// shared by the pipeline and the aggregator.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
