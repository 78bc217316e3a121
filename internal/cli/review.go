package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/pkg/models"
)

var reviewCmd = &cobra.Command{
	Use:   "review <path>",
	Short: "Run the multi-model review against an existing configuration",
	Long: `Send a configuration directory to every configured external model and
print the merged findings. Reviewers without API keys in the
environment are skipped; with no keys at all the review is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := loadConfigFiles(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no configuration files found under %s", args[0])
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		issues, err := Reviewer.Review(ctx, files, nil)
		if err != nil {
			return fmt.Errorf("reviewing %s: %w", args[0], err)
		}
		logEvent("review.completed", map[string]any{"issues": len(issues)})

		fmt.Println(summaryStyle.Render(" Multi-model review "))
		if len(issues) == 0 {
			fmt.Println(okStyle.Render("  No findings above the confidence threshold."))
			return nil
		}
		for _, issue := range issues {
			fmt.Printf("%s %s %s\n",
				severityBadge(issue.Severity),
				issue.Message,
				subtleStyle.Render(fmt.Sprintf("[%s, confidence %d]", issue.Source, issue.Confidence)))
			if issue.Suggestion != "" {
				fmt.Printf("    %s\n", subtleStyle.Render("suggestion: "+issue.Suggestion))
			}
		}
		return nil
	},
}

// loadConfigFiles reads a configuration directory back into generated-file
// form so the reviewer can consume it.
func loadConfigFiles(dir string) ([]models.GeneratedFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []models.GeneratedFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
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
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
