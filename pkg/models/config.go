package models

// ReviewerConfig describes one reviewer participant for multi-model review.
type ReviewerConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Model  string `yaml:"model" mapstructure:"model"`
	KeyEnv string `yaml:"key_env" mapstructure:"key_env"`
}

// GlobalConfig holds system-wide settings read from .confpilotrc via Viper.
type GlobalConfig struct {
	ConfigsPath     string           `yaml:"configs_path" mapstructure:"configs_path"`
	OutputDir       string           `yaml:"output_dir" mapstructure:"output_dir"`
	DeepResearch    bool             `yaml:"deep_research" mapstructure:"deep_research"`
	SkipResearch    bool             `yaml:"skip_research" mapstructure:"skip_research"`
	SkipReview      bool             `yaml:"skip_review" mapstructure:"skip_review"`
	SourceTimeoutMS int              `yaml:"source_timeout_ms" mapstructure:"source_timeout_ms"`
	Reviewers       []ReviewerConfig `yaml:"reviewers,omitempty" mapstructure:"reviewers"`
}
