package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mlehotay/confpilot/pkg/models"
)

func TestProfileStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewProfileStoreManager(t.TempDir())

	if store.Exists() {
		t.Fatal("store should start empty")
	}

	profile := &models.UserProfile{
		Name:              "Morgan",
		DiscoveredConfigs: []string{"/home/morgan/claude-configs/backend"},
		APIKeysConfigured: true,
		Preferences:       map[string]string{"default_security": "high"},
	}
	if err := store.Save(profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Exists() {
		t.Fatal("Exists should report the saved profile")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Name != "Morgan" || !loaded.APIKeysConfigured {
		t.Fatalf("profile fields lost: %+v", loaded)
	}
	if len(loaded.DiscoveredConfigs) != 1 {
		t.Fatalf("discovered configs lost: %v", loaded.DiscoveredConfigs)
	}
	if loaded.Preferences["default_security"] != "high" {
		t.Fatalf("preferences lost: %v", loaded.Preferences)
	}
}

func TestProfileStore_SaveUsesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileStoreManager(dir)

	if err := store.Save(&models.UserProfile{Name: "x"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("profile permissions = %o, want 600", perm)
	}
}

func TestProfileStore_SaveCreatesConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	store := NewProfileStoreManager(dir)

	if err := store.Save(&models.UserProfile{Name: "x"}); err != nil {
		t.Fatalf("save should create the directory: %v", err)
	}
}

func TestProfileStore_LoadMissingFile(t *testing.T) {
	store := NewProfileStoreManager(t.TempDir())
	if _, err := store.Load(); err == nil {
		t.Fatal("expected error for a missing profile")
	}
}

func TestProfileStore_LoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "profile.yaml"), []byte("discovered_configs: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewProfileStoreManager(dir)
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Name != "User" {
		t.Fatalf("empty name should default to User, got %q", loaded.Name)
	}
	if loaded.Preferences == nil {
		t.Fatal("nil preferences should be initialized")
	}
}

func TestProfileStore_LoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "profile.yaml"), []byte(":\n - [broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewProfileStoreManager(dir)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
