package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statusSince string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show profile, API key, and run metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(summaryStyle.Render(" Status "))

		if ProfileStore.Exists() {
			profile, err := ProfileStore.Load()
			if err != nil {
				return err
			}
			fmt.Printf("  Profile: %s (%s)\n", profile.Name, ProfileStore.Path())
			fmt.Printf("  Discovered configurations: %d\n", len(profile.DiscoveredConfigs))
		} else {
			fmt.Println(warnStyle.Render("  No profile yet. Run: confpilot init"))
		}

		if err := KeyMgr.LoadEnvFile(); err != nil {
			return err
		}
		printKeyStatus()

		if MetricsCalc == nil {
			fmt.Println(subtleStyle.Render("  Metrics unavailable (event log disabled)."))
			return nil
		}

		since, err := parseSince(statusSince)
		if err != nil {
			return err
		}
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			return err
		}

		fmt.Printf("  Runs (last %s): %d started, %d completed, %d failed\n",
			statusSince, metrics.RunsStarted, metrics.RunsCompleted, metrics.RunsFailed)
		fmt.Printf("  Stages skipped: %d, source failures: %d\n", metrics.StagesSkipped, metrics.SourceFailures)
		fmt.Printf("  Files written: %d, review findings: %d\n", metrics.FilesWritten, metrics.ReviewFindings)
		if len(metrics.StagesCompleted) > 0 {
			names := make([]string, 0, len(metrics.StagesCompleted))
			for name := range metrics.StagesCompleted {
				names = append(names, name)
			}
			sort.Strings(names)
			parts := make([]string, len(names))
			for i, name := range names {
				parts[i] = fmt.Sprintf("%s=%d", name, metrics.StagesCompleted[name])
			}
			fmt.Printf("  Stage completions: %s\n", subtleStyle.Render(strings.Join(parts, " ")))
		}
		return nil
	},
}

// parseSince turns a duration shorthand like "7d" or "24h" into an
// absolute time.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	return now.Add(-d), nil
}

func init() {
	statusCmd.Flags().StringVar(&statusSince, "since", "7d", "metrics window, e.g. 24h or 30d")
	rootCmd.AddCommand(statusCmd)
}
