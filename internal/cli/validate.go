package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/pkg/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate an existing configuration directory",
	Long: `Run the validation checks against a configuration directory on disk:
required CLAUDE.md sections, settings structure, frontmatter, and a
credential scan across every text file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := Validator.ValidatePath(args[0])
		if err != nil {
			return fmt.Errorf("validating %s: %w", args[0], err)
		}
		printValidationReport(report)
		if !report.IsValid {
			return fmt.Errorf("validation failed: %s", report.Summary)
		}
		return nil
	},
}

func printValidationReport(report *models.ValidationReport) {
	fmt.Println(summaryStyle.Render(" Validation report "))
	line := fmt.Sprintf("  Score: %d/100 (%d/%d checks passed)", report.Score, report.ChecksPassed, report.ChecksTotal)
	if report.IsValid {
		fmt.Println(okStyle.Render(line))
	} else {
		fmt.Println(errStyle.Render(line))
	}
	fmt.Printf("  %s\n", report.Summary)

	for _, issue := range report.Issues {
		loc := issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		fmt.Printf("%s %s %s\n", severityBadge(issue.Severity), loc, issue.Message)
		if issue.Fix != "" {
			fmt.Printf("    %s\n", subtleStyle.Render("fix: "+issue.Fix))
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
