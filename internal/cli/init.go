package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlehotay/confpilot/internal/setup"
	"github.com/mlehotay/confpilot/pkg/models"
)

var initQuick bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Run first-time setup",
	Long: `Create the user profile, discover existing configurations, and load
API keys from the .env file. Safe to re-run; an existing profile is
refreshed rather than replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			profile *models.UserProfile
			err     error
		)
		if initQuick {
			profile, err = Wizard.QuickSetup()
		} else {
			profile, err = Wizard.EnsureSetup()
		}
		if err != nil {
			return fmt.Errorf("setup: %w", err)
		}

		fmt.Println(summaryStyle.Render(" Setup complete "))
		fmt.Printf("  Profile: %s\n", ProfileStore.Path())
		fmt.Printf("  Discovered configurations: %d\n", len(profile.DiscoveredConfigs))
		for _, dir := range profile.DiscoveredConfigs {
			fmt.Printf("    %s\n", subtleStyle.Render(dir))
		}
		printKeyStatus()
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys for multi-model features",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show configured API keys (masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := KeyMgr.LoadEnvFile(); err != nil {
			return err
		}
		printKeyStatus()
		return nil
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store an API key in the application .env file",
	Long: `Store an API key. The name must be one of the supported providers
(openai, gemini, anthropic). The key is written to the .env file with
0600 permissions and exported into the current process.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(args[0])
		for _, spec := range setup.SupportedKeys {
			if spec.Name != name {
				continue
			}
			if err := KeyMgr.SaveKey(spec.EnvVar, args[1]); err != nil {
				return fmt.Errorf("saving %s: %w", spec.DisplayName, err)
			}
			fmt.Println(okStyle.Render(fmt.Sprintf("Saved %s.", spec.DisplayName)))
			return nil
		}
		return fmt.Errorf("unknown key name %q (supported: %s)", name, supportedKeyNames())
	},
}

func printKeyStatus() {
	fmt.Println("  API keys:")
	status := KeyMgr.MaskedStatus()
	for _, spec := range setup.SupportedKeys {
		value := status[spec.Name]
		line := fmt.Sprintf("    %-10s %s", spec.Name, value)
		if value == "not set" {
			fmt.Println(subtleStyle.Render(line + "  (" + spec.HelpURL + ")"))
		} else {
			fmt.Println(okStyle.Render(line))
		}
	}
}

func supportedKeyNames() string {
	names := make([]string, len(setup.SupportedKeys))
	for i, spec := range setup.SupportedKeys {
		names[i] = spec.Name
	}
	return strings.Join(names, ", ")
}

func init() {
	initCmd.Flags().BoolVar(&initQuick, "quick", false, "recreate the profile with defaults, skipping prompts")
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysSetCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(keysCmd)
}
