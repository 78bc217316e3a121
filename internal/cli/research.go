package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/pkg/models"
)

var (
	researchTopic string
	researchDeep  bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research configuration best practices",
	Long: `Query the knowledge sources for configuration best practices and
print the merged, ranked results. Use --topic to query a single source
and --deep to include remote community sources.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var (
			results *models.ResearchResults
			err     error
		)
		if researchTopic != "" {
			results, err = Research.ResearchTopic(ctx, researchTopic, models.ResearchContext{})
		} else {
			results, err = Research.ResearchAll(ctx, models.ResearchContext{}, researchDeep)
		}
		if err != nil {
			return fmt.Errorf("researching: %w", err)
		}

		fmt.Println(summaryStyle.Render(" Best practices "))
		fmt.Printf("  Sources analyzed: %d\n", results.SourcesAnalyzed)
		if len(results.FailedSources) > 0 {
			fmt.Println(warnStyle.Render("  Failed sources: " + strings.Join(results.FailedSources, ", ")))
		}
		fmt.Printf("  Practices: %d\n\n", len(results.Practices))
		for _, p := range results.Practices {
			fmt.Printf("%s %s %s\n",
				severityBadge(p.Priority),
				stageStyle.Render(p.Title),
				subtleStyle.Render(fmt.Sprintf("[%s, confidence %d]", p.Category, p.Confidence)))
			if p.Description != "" {
				fmt.Printf("    %s\n", p.Description)
			}
		}
		return nil
	},
}

// severityBadge renders a severity as a colored fixed-width tag.
func severityBadge(s models.Severity) string {
	tag := fmt.Sprintf("[%-10s]", s)
	switch s {
	case models.SeverityCritical, models.SeverityHigh:
		return errStyle.Render(tag)
	case models.SeverityMedium, models.SeverityWarning:
		return warnStyle.Render(tag)
	default:
		return subtleStyle.Render(tag)
	}
}

func init() {
	researchCmd.Flags().StringVar(&researchTopic, "topic", "", "research a single topic (security, configuration, workflow, multi_model, memory)")
	researchCmd.Flags().BoolVar(&researchDeep, "deep", false, "include remote community sources")
	rootCmd.AddCommand(researchCmd)
}
