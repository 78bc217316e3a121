// Package setup handles first-run setup: profile creation, existing
// configuration discovery, and API key management.
package setup

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mlehotay/confpilot/internal/storage"
	"github.com/mlehotay/confpilot/pkg/models"
)

// Discovery limits. Scans stay shallow so setup is fast even in large
// home directories.
const (
	maxScanDepth      = 3
	maxQuickDiscovery = 10
)

// Wizard performs first-run setup and profile loading.
type Wizard struct {
	store storage.ProfileStoreManager
	keys  *APIKeyManager
}

// NewWizard creates a setup Wizard over the given profile store and key
// manager.
func NewWizard(store storage.ProfileStoreManager, keys *APIKeyManager) *Wizard {
	return &Wizard{store: store, keys: keys}
}

// EnsureSetup loads the stored profile, creating one with discovered
// defaults on first run. API keys are loaded from the .env file either way.
func (w *Wizard) EnsureSetup() (*models.UserProfile, error) {
	if err := w.keys.LoadEnvFile(); err != nil {
		return nil, err
	}

	if w.store.Exists() {
		profile, err := w.store.Load()
		if err != nil {
			return nil, err
		}
		profile.APIKeysConfigured = len(w.keys.ConfiguredKeys()) > 0
		return profile, nil
	}

	return w.QuickSetup()
}

// QuickSetup builds a profile with sensible defaults and a shallow
// configuration discovery scan, then persists it.
func (w *Wizard) QuickSetup() (*models.UserProfile, error) {
	if err := w.keys.LoadEnvFile(); err != nil {
		return nil, err
	}

	discovered := DiscoverConfigs()
	if len(discovered) > maxQuickDiscovery {
		discovered = discovered[:maxQuickDiscovery]
	}

	profile := &models.UserProfile{
		Name:              "User",
		DiscoveredConfigs: discovered,
		APIKeysConfigured: len(w.keys.ConfiguredKeys()) > 0,
		Preferences: map[string]string{
			"default_autonomy": string(models.AutonomySeniorDev),
			"default_security": string(models.SecurityStandard),
		},
	}

	if err := w.store.Save(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DiscoverConfigs scans common locations for existing assistant
// configurations and returns their directories, sorted and deduplicated.
func DiscoverConfigs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	searchPaths := []string{
		filepath.Join(home, "claude-configs"),
		filepath.Join(home, ".claude"),
		filepath.Join(home, ".config", "claude"),
		filepath.Join(home, "Documents", "claude-configs"),
		filepath.Join(home, "Projects"),
		filepath.Join(home, "code"),
		filepath.Join(home, "dev"),
	}

	seen := make(map[string]bool)
	var configs []string
	for _, root := range searchPaths {
		for _, dir := range ScanDirectory(root, maxScanDepth) {
			if !seen[dir] {
				seen[dir] = true
				configs = append(configs, dir)
			}
		}
	}
	sort.Strings(configs)
	return configs
}

// ScanDirectory finds configuration directories under root, up to depth
// path components deep. Unreadable directories are skipped.
func ScanDirectory(root string, depth int) []string {
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	var configs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > depth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case !d.IsDir() && d.Name() == "CLAUDE.md":
			configs = append(configs, filepath.Dir(path))
		case d.IsDir() && d.Name() == ".claude":
			configs = append(configs, filepath.Dir(path))
			return filepath.SkipDir
		}
		return nil
	})
	return configs
}
