package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze existing configurations for reusable patterns",
	Long: `Scan a directory of existing assistant configurations and report the
agents, commands, hooks, and permission rules found in them. With no
path, the configured configs path (or ~/claude-configs) is scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if Config != nil {
			path = Config.ConfigsPath
		}
		if path == "" {
			path = defaultConfigsPath()
		}

		patterns, err := Analyzer.Analyze(path)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", path, err)
		}

		fmt.Println(summaryStyle.Render(" Pattern analysis "))
		fmt.Printf("  Configurations found: %d\n", len(patterns.Configs))
		for _, c := range patterns.Configs {
			fmt.Printf("    %s\n", subtleStyle.Render(c))
		}
		printPatternGroup("Agents", patterns.Agents)
		printPatternGroup("Commands", patterns.Commands)
		printPatternGroup("Hooks", patterns.Hooks)
		printPatternGroup("Permissions", patterns.Permissions)
		return nil
	},
}

func defaultConfigsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "claude-configs")
}

func printPatternGroup(label string, entries []models.PatternEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("  %s: %d\n", label, len(entries))
	for _, e := range entries {
		fmt.Printf("    %s %s\n", stageStyle.Render(e.Name), subtleStyle.Render("("+e.SourceFile+")"))
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
