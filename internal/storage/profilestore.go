// Package storage persists user-level state for the pipeline: the user
// profile with discovered configurations and preferences.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mlehotay/confpilot/pkg/models"
)

const profileFileName = "profile.yaml"

// ProfileStoreManager manages the persisted user profile under the
// application config directory.
type ProfileStoreManager interface {
	Exists() bool
	Load() (*models.UserProfile, error)
	Save(profile *models.UserProfile) error
	Path() string
}

type fileProfileStore struct {
	configDir string
}

// NewProfileStoreManager creates a ProfileStoreManager backed by a YAML
// file under configDir.
func NewProfileStoreManager(configDir string) ProfileStoreManager {
	return &fileProfileStore{configDir: configDir}
}

func (s *fileProfileStore) Path() string {
	return filepath.Join(s.configDir, profileFileName)
}

func (s *fileProfileStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads the stored profile. A missing file is an error; callers
// check Exists first when first-run behavior differs.
func (s *fileProfileStore) Load() (*models.UserProfile, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var profile models.UserProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("loading profile: parsing %s: %w", s.Path(), err)
	}
	if profile.Name == "" {
		profile.Name = "User"
	}
	if profile.Preferences == nil {
		profile.Preferences = make(map[string]string)
	}
	return &profile, nil
}

// Save writes the profile, creating the config directory if needed.
func (s *fileProfileStore) Save(profile *models.UserProfile) error {
	if err := os.MkdirAll(s.configDir, 0o755); err != nil {
		return fmt.Errorf("saving profile: creating directory: %w", err)
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("saving profile: encoding: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("saving profile: writing %s: %w", s.Path(), err)
	}
	return nil
}
