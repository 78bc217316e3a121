// Package core holds application-level configuration loading for the
// configuration pipeline.
package core

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mlehotay/confpilot/pkg/models"
)

// ConfigurationManager loads the global .confpilotrc configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .confpilotrc resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		ConfigsPath:     "",
		OutputDir:       ".",
		DeepResearch:    false,
		SkipResearch:    false,
		SkipReview:      false,
		SourceTimeoutMS: 30_000,
		Reviewers: []models.ReviewerConfig{
			{Name: "OpenAI GPT-5.2", Model: "gpt-5.2-codex", KeyEnv: "OPENAI_API_KEY"},
			{Name: "Google Gemini 3", Model: "gemini-3-pro-preview", KeyEnv: "GEMINI_API_KEY"},
		},
	}
}

// LoadGlobalConfig reads the .confpilotrc file from the base path using
// Viper. If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".confpilotrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("configs_path", cfg.ConfigsPath)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("deep_research", cfg.DeepResearch)
	v.SetDefault("skip_research", cfg.SkipResearch)
	v.SetDefault("skip_review", cfg.SkipReview)
	v.SetDefault("source_timeout_ms", cfg.SourceTimeoutMS)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .confpilotrc: %w", err)
	}

	cfg.ConfigsPath = v.GetString("configs_path")
	cfg.OutputDir = v.GetString("output_dir")
	cfg.DeepResearch = v.GetBool("deep_research")
	cfg.SkipResearch = v.GetBool("skip_research")
	cfg.SkipReview = v.GetBool("skip_review")
	if v.IsSet("source_timeout_ms") {
		cfg.SourceTimeoutMS = v.GetInt("source_timeout_ms")
	}
	if cfg.SourceTimeoutMS <= 0 {
		return nil, fmt.Errorf("source_timeout_ms must be positive, got %d", cfg.SourceTimeoutMS)
	}

	if v.IsSet("reviewers") {
		var reviewers []models.ReviewerConfig
		if err := v.UnmarshalKey("reviewers", &reviewers); err != nil {
			return nil, fmt.Errorf("reading .confpilotrc: parsing reviewers: %w", err)
		}
		cfg.Reviewers = reviewers
	}

	return cfg, nil
}
