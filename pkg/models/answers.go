package models

// Purpose describes what the generated configuration is for.
type Purpose string

const (
	PurposeSolo       Purpose = "solo"
	PurposeTeam       Purpose = "team"
	PurposeEnterprise Purpose = "enterprise"
	PurposeLearning   Purpose = "learning"
	PurposeResearch   Purpose = "research"
)

// AutonomyLevel controls how much freedom the assistant is granted.
type AutonomyLevel string

const (
	AutonomyCoFounder AutonomyLevel = "co_founder"
	AutonomySeniorDev AutonomyLevel = "senior_dev"
	AutonomyAssistant AutonomyLevel = "assistant"
)

// SecurityLevel controls how strict the generated permission set is.
type SecurityLevel string

const (
	SecurityRelaxed  SecurityLevel = "relaxed"
	SecurityStandard SecurityLevel = "standard"
	SecurityHigh     SecurityLevel = "high"
	SecurityMaximum  SecurityLevel = "maximum"
)

// FileDeletionPolicy controls whether the assistant may delete files.
type FileDeletionPolicy string

const (
	DeletionFull    FileDeletionPolicy = "full"
	DeletionLimited FileDeletionPolicy = "limited"
	DeletionNone    FileDeletionPolicy = "none"
)

// TechStack describes the project's technology choices.
type TechStack struct {
	PrimaryLanguage string   `json:"primary_language" yaml:"primary_language"`
	Frameworks      []string `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
	PackageManager  string   `json:"package_manager,omitempty" yaml:"package_manager,omitempty"`
	Database        string   `json:"database,omitempty" yaml:"database,omitempty"`
	TestRunner      string   `json:"test_runner,omitempty" yaml:"test_runner,omitempty"`
	BuildCommand    string   `json:"build_command,omitempty" yaml:"build_command,omitempty"`
}

// QuestionnaireAnswers is the structured result of the questionnaire stage.
type QuestionnaireAnswers struct {
	ConfigName     string    `json:"config_name" yaml:"config_name"`
	IdentityPhrase string    `json:"identity_phrase,omitempty" yaml:"identity_phrase,omitempty"`
	Purpose        Purpose   `json:"purpose" yaml:"purpose"`
	Stack          TechStack `json:"tech_stack" yaml:"tech_stack"`

	AutonomyLevel AutonomyLevel `json:"autonomy_level" yaml:"autonomy_level"`
	CommonTasks   []string      `json:"common_tasks,omitempty" yaml:"common_tasks,omitempty"`

	SecurityLevel     SecurityLevel      `json:"security_level" yaml:"security_level"`
	AllowFileDeletion FileDeletionPolicy `json:"allow_file_deletion" yaml:"allow_file_deletion"`

	EnableHooks      []string `json:"enable_hooks,omitempty" yaml:"enable_hooks,omitempty"`
	EnableAgents     []string `json:"enable_agents,omitempty" yaml:"enable_agents,omitempty"`
	EnableCommands   []string `json:"enable_commands,omitempty" yaml:"enable_commands,omitempty"`
	EnableMemory     bool     `json:"enable_memory" yaml:"enable_memory"`
	EnableMultiModel bool     `json:"enable_multi_model" yaml:"enable_multi_model"`

	HasSecrets      bool   `json:"has_secrets" yaml:"has_secrets"`
	SecretsLocation string `json:"secrets_location,omitempty" yaml:"secrets_location,omitempty"`
}

// Defaults fills unset enum fields with safe values. Called after loading
// answers from a file so partial answer files remain usable.
func (a *QuestionnaireAnswers) Defaults() {
	if a.ConfigName == "" {
		a.ConfigName = "new-config"
	}
	if a.Purpose == "" {
		a.Purpose = PurposeSolo
	}
	if a.AutonomyLevel == "" {
		a.AutonomyLevel = AutonomySeniorDev
	}
	if a.SecurityLevel == "" {
		a.SecurityLevel = SecurityStandard
	}
	if a.AllowFileDeletion == "" {
		a.AllowFileDeletion = DeletionLimited
	}
	if a.SecretsLocation == "" && a.HasSecrets {
		a.SecretsLocation = "~/.secrets/load.sh"
	}
}
