package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// fileWriter persists generated files to disk. Writes are idempotent:
// existing files are overwritten in place.
type fileWriter struct{}

func newFileWriter() fileWriter { return fileWriter{} }

// WriteFiles writes each generated file under dest, creating parent
// directories as needed. File paths are relative to dest; anything that
// would escape it is rejected.
func (fileWriter) WriteFiles(files []models.GeneratedFile, dest string) error {
	for _, file := range files {
		rel := filepath.Clean(file.Path)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("invalid file path: %s", file.Path)
		}

		target := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}

	logEvent("write.files_written", map[string]any{"count": len(files), "dest": dest})
	return nil
}
