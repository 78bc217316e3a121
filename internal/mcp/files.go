package mcp

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlehotay/confpilot/pkg/models"
)

// loadConfigDir reads a configuration directory back into generated-file
// form. Only markdown and JSON files are included.
func loadConfigDir(dir string) ([]models.GeneratedFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []models.GeneratedFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".json":
		default:
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, models.GeneratedFile{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
