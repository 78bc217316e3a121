package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/internal/pipeline"
	"github.com/mlehotay/confpilot/internal/questions"
)

// Style definitions for pipeline output.
var (
	stageStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
)

var (
	generateOutput       string
	generateQuick        bool
	generateSkipResearch bool
	generateSkipReview   bool
	generateDeepResearch bool
	generateAnswersFile  string
	generateDryRun       bool
	generateResume       string
	generateStopAfter    string
	generateYes          bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full configuration generation pipeline",
	Long: `Run every pipeline stage in order: setup, discovery, research,
questionnaire, analysis, generation, validation, review, and write.

Use --resume to continue a run from a given stage, --stop-after to end
early, and --dry-run to walk the stages without side effects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(pipelineConfig{
			output:       generateOutput,
			quick:        generateQuick,
			skipResearch: generateSkipResearch,
			skipReview:   generateSkipReview,
			deepResearch: generateDeepResearch,
			answersFile:  generateAnswersFile,
			force:        generateYes,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logEvent("pipeline.run_started", map[string]any{"dry_run": generateDryRun})

		pctx, err := p.Run(ctx, nil, pipeline.RunOptions{
			DryRun:    generateDryRun,
			StartFrom: generateResume,
			StopAfter: generateStopAfter,
		})
		if err != nil {
			logEvent("pipeline.run_failed", map[string]any{"error": err.Error()})
			fmt.Println(errStyle.Render("Pipeline failed: " + err.Error()))
			return err
		}

		logEvent("pipeline.run_completed", map[string]any{
			"run_id": pctx.RunID,
			"stages": len(pctx.CompletedStages),
		})
		if pctx.Completed(pipeline.StageReview) {
			logEvent("review.completed", map[string]any{"issues": len(pctx.ReviewIssues)})
		}
		printRunSummary(pctx)
		return nil
	},
}

// pipelineConfig carries the per-invocation pipeline settings.
type pipelineConfig struct {
	output       string
	quick        bool
	skipResearch bool
	skipReview   bool
	deepResearch bool
	answersFile  string
	force        bool
}

// buildPipeline assembles the nine stages from the wired services.
func buildPipeline(cfg pipelineConfig) (*pipeline.Pipeline, error) {
	if Config == nil {
		return nil, fmt.Errorf("application not initialized")
	}

	skipResearch := cfg.skipResearch || Config.SkipResearch
	skipReview := cfg.skipReview || Config.SkipReview
	deep := cfg.deepResearch || Config.DeepResearch

	asker := questions.NewEngine(cfg.answersFile, !cfg.quick && cfg.answersFile == "")

	output := cfg.output
	if output == "" {
		output = Config.OutputDir
		if output == "." {
			output = ""
		}
	}

	var confirm pipeline.ConfirmFunc
	if !cfg.force {
		confirm = confirmPrompt
	}

	stages := []pipeline.Stage{
		pipeline.NewSetupStage(Wizard, cfg.quick, Events),
		pipeline.NewDiscoveryStage(Analyzer, Config.ConfigsPath, Events),
		pipeline.NewResearchStage(Research, deep, skipResearch, Events),
		pipeline.NewQuestionnaireStage(asker, Events),
		pipeline.NewAnalysisStage(Advisor, confirm, Events),
		pipeline.NewGenerationStage(Generator, Events),
		pipeline.NewValidationStage(Validator, Events),
		pipeline.NewReviewStage(Reviewer, skipReview, Events),
		pipeline.NewWriteStage(newFileWriter(), output, "", cfg.force, confirm, Events),
	}

	return pipeline.New(stages, printProgress, Events), nil
}

// printProgress renders one line per stage as the pipeline advances.
func printProgress(stageName string, current, total int) {
	fmt.Printf("%s %s\n",
		subtleStyle.Render(fmt.Sprintf("[%d/%d]", current, total)),
		stageStyle.Render(stageName))
}

// confirmPrompt asks a yes/no question on the terminal. Defaults to no.
func confirmPrompt(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// printRunSummary reports what the run produced.
func printRunSummary(pctx *pipeline.Context) {
	fmt.Println()
	fmt.Println(summaryStyle.Render(" Run complete "))
	fmt.Printf("  Run ID: %s\n", pctx.RunID)
	fmt.Printf("  Stages completed: %s\n", strings.Join(pctx.CompletedStages, ", "))

	if len(pctx.GeneratedFiles) > 0 {
		fmt.Printf("  Files generated: %d\n", len(pctx.GeneratedFiles))
	}
	if pctx.Validation != nil {
		line := fmt.Sprintf("  Validation: %d/100 (%s)", pctx.Validation.Score, pctx.Validation.Summary)
		if pctx.Validation.IsValid {
			fmt.Println(okStyle.Render(line))
		} else {
			fmt.Println(warnStyle.Render(line))
		}
	}
	if len(pctx.ReviewIssues) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  Review findings: %d", len(pctx.ReviewIssues))))
		for _, issue := range pctx.ReviewIssues {
			fmt.Printf("    [%s] %s: %s\n", issue.Source, issue.Severity, issue.Message)
		}
	}
}

// logEvent writes an event if observability is enabled.
func logEvent(eventType string, data map[string]any) {
	if Events == nil {
		return
	}
	_ = Events.LogEvent(eventType, data)
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output directory for the generated configuration")
	generateCmd.Flags().BoolVar(&generateQuick, "quick", false, "quick mode: skip interactive prompts, use defaults")
	generateCmd.Flags().BoolVar(&generateSkipResearch, "skip-research", false, "skip the research stage")
	generateCmd.Flags().BoolVar(&generateSkipReview, "skip-review", false, "skip the multi-model review stage")
	generateCmd.Flags().BoolVar(&generateDeepResearch, "deep-research", false, "include remote community sources in research")
	generateCmd.Flags().StringVar(&generateAnswersFile, "answers", "", "answers file (YAML or JSON) for non-interactive runs")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "walk the stages without running them")
	generateCmd.Flags().StringVar(&generateResume, "resume", "", "resume the pipeline from this stage")
	generateCmd.Flags().StringVar(&generateStopAfter, "stop-after", "", "stop the pipeline after this stage")
	generateCmd.Flags().BoolVarP(&generateYes, "yes", "y", false, "answer yes to all confirmation prompts")
	rootCmd.AddCommand(generateCmd)
}
