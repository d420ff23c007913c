package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/assistant"
)

// newConfigCmd creates the `pubai config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and credentials",
	}

	cmd.AddCommand(
		newConfigSetKeyCmd(),
		newConfigShowCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

// newConfigSetKeyCmd stores the model API key in the OS keyring.
func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the model API key in the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Print("API key: ")
			key, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			if len(key) == 0 {
				return fmt.Errorf("empty key")
			}

			if err := assistant.StoreKeyring("api_key", string(key)); err != nil {
				return fmt.Errorf("storing key in keyring: %w", err)
			}

			fmt.Println("API key stored in the OS keyring.")
			return nil
		},
	}
}

// newConfigShowCmd prints the effective configuration with secrets masked.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets masked)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			masked := *cfg
			masked.API.APIKey = maskSecret(cfg.API.APIKey)
			masked.Channels.Discord.Token = maskSecret(cfg.Channels.Discord.Token)

			data, err := yaml.Marshal(&masked)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

// newConfigPathCmd prints the config file path in use.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Root().PersistentFlags().GetString("config")
			if path == "" {
				path = assistant.FindConfigFile()
			}
			if path == "" {
				fmt.Println("(no config file, using defaults + environment)")
				return nil
			}
			fmt.Println(path)
			return nil
		},
	}
}

// maskSecret hides all but the last 4 characters of a secret.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
