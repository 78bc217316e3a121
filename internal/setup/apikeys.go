package setup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeySpec describes one supported API key.
type KeySpec struct {
	Name        string
	EnvVar      string
	DisplayName string
	HelpURL     string
}

// SupportedKeys lists the API keys the multi-model features can use.
var SupportedKeys = []KeySpec{
	{
		Name:        "openai",
		EnvVar:      "OPENAI_API_KEY",
		DisplayName: "OpenAI API Key",
		HelpURL:     "https://platform.openai.com/api-keys",
	},
	{
		Name:        "gemini",
		EnvVar:      "GEMINI_API_KEY",
		DisplayName: "Google Gemini API Key",
		HelpURL:     "https://aistudio.google.com/app/apikey",
	},
	{
		Name:        "anthropic",
		EnvVar:      "ANTHROPIC_API_KEY",
		DisplayName: "Anthropic API Key",
		HelpURL:     "https://console.anthropic.com/settings/keys",
	},
}

// APIKeyManager resolves API keys from the process environment and the
// application .env file. Environment variables win.
type APIKeyManager struct {
	configDir string
}

// NewAPIKeyManager creates an APIKeyManager using configDir for the
// .env file.
func NewAPIKeyManager(configDir string) *APIKeyManager {
	return &APIKeyManager{configDir: configDir}
}

func (m *APIKeyManager) envFilePath() string {
	return filepath.Join(m.configDir, ".env")
}

// LoadEnvFile exports the .env file's entries into the process
// environment. Variables already set are not overridden. A missing file
// is fine.
func (m *APIKeyManager) LoadEnvFile() error {
	f, err := os.Open(m.envFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening env file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading env file: %w", err)
	}
	return nil
}

// SaveKey appends or replaces one key in the .env file and exports it
// into the current process.
func (m *APIKeyManager) SaveKey(envVar, value string) error {
	if err := os.MkdirAll(m.configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var lines []string
	if content, err := os.ReadFile(m.envFilePath()); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "export "))
			if strings.HasPrefix(trimmed, envVar+"=") {
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	lines = append(lines, fmt.Sprintf("export %s=%q", envVar, value))

	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(m.envFilePath(), []byte(data), 0o600); err != nil {
		return fmt.Errorf("writing env file: %w", err)
	}
	return os.Setenv(envVar, value)
}

// ConfiguredKeys returns the names of supported keys currently present
// in the environment.
func (m *APIKeyManager) ConfiguredKeys() []string {
	var configured []string
	for _, spec := range SupportedKeys {
		if os.Getenv(spec.EnvVar) != "" {
			configured = append(configured, spec.Name)
		}
	}
	return configured
}

// MaskedStatus reports each supported key with a masked value for
// display, e.g. "sk-a...f3c9".
func (m *APIKeyManager) MaskedStatus() map[string]string {
	status := make(map[string]string, len(SupportedKeys))
	for _, spec := range SupportedKeys {
		value := os.Getenv(spec.EnvVar)
		if value == "" {
			status[spec.Name] = "not set"
			continue
		}
		status[spec.Name] = maskKey(value)
	}
	return status
}

func maskKey(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
