// Package commands implements the Pub-AI CLI commands using cobra.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/assistant"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pubai",
		Short: "Pub-AI — role-gated Discord assistant for the Pub++ IDE",
		Long: `Pub-AI gates a hosted language model behind buyer/admin roles,
a rolling usage quota, and a topic filter, and serves it over Discord.

Examples:
  pubai serve
  pubai serve --config ./config.yaml
  pubai setup
  pubai config set-key`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSetupCmd(),
		newConfigCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")

	return rootCmd
}

// resolveConfig loads config from --config or the standard locations,
// falling back to defaults (env-driven) when no file exists.
func resolveConfig(cmd *cobra.Command) (*assistant.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = assistant.FindConfigFile()
	}
	if path == "" {
		return assistant.LoadConfigFromEnv(), nil
	}

	cfg, err := assistant.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}
