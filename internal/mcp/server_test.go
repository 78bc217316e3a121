package mcp

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	now := time.Now().UTC()

	got, err := parseSince("7d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := now.AddDate(0, 0, -7)
	if got.Sub(want) > time.Minute || want.Sub(got) > time.Minute {
		t.Fatalf("7d: got %v, want about %v", got, want)
	}

	got, err = parseSince("24h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = now.Add(-24 * time.Hour)
	if got.Sub(want) > time.Minute || want.Sub(got) > time.Minute {
		t.Fatalf("24h: got %v, want about %v", got, want)
	}

	for _, bad := range []string{"", "d", "7w", "xd"} {
		if _, err := parseSince(bad); err == nil {
			t.Errorf("parseSince(%q) should fail", bad)
		}
	}
}

func TestLoadConfigDir(t *testing.T) {
	dir := t.TempDir()

	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("CLAUDE.md", "# Config\n")
	write(".claude/settings.json", "{}")
	write("script.sh", "echo skipped\n")

	files, err := loadConfigDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %+v", files)
	}
	got := make(map[string]string)
	for _, f := range files {
		got[f.Path] = f.Content
	}
	if got["CLAUDE.md"] != "# Config\n" {
		t.Fatalf("content not loaded: %v", got)
	}
	if _, ok := got[filepath.Join(".claude", "settings.json")]; !ok {
		t.Fatalf("nested file missing: %v", got)
	}
}

func TestLoadConfigDir_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfigDir(path); err == nil {
		t.Fatal("expected error for a non-directory path")
	}
	if _, err := loadConfigDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for a missing path")
	}
}
