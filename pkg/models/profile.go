package models

// UserProfile holds the user identity and preferences captured by the
// setup wizard. Set once by the setup stage and read-only afterward.
type UserProfile struct {
	Name              string            `yaml:"name"`
	ConfigsPath       string            `yaml:"configs_path,omitempty"`
	DiscoveredConfigs []string          `yaml:"discovered_configs,omitempty"`
	Preferences       map[string]string `yaml:"preferences,omitempty"`
	APIKeysConfigured bool              `yaml:"api_keys_configured"`
}
