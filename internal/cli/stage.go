package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage <name>",
	Short: "Run a single pipeline stage standalone",
	Long: `Run one stage by name with a fresh context, bypassing skip and input
checks. Mostly useful for setup, discovery, research, and
questionnaire, which need no prior stage output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(pipelineConfig{force: true})
		if err != nil {
			return err
		}
		name := strings.ToLower(args[0])

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		pctx, err := p.RunStage(ctx, name, nil)
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Stage %s completed.", name)))
		printRunSummary(pctx)
		return nil
	},
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the pipeline stages in execution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(pipelineConfig{force: true})
		if err != nil {
			return err
		}
		for i, name := range p.StageNames() {
			fmt.Printf("%s %s\n", subtleStyle.Render(fmt.Sprintf("%d.", i+1)), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(stagesCmd)
}
