package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/assistant"
)

// newSetupCmd creates the `pubai setup` command for interactive configuration.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard to create your initial config.yaml.
Asks for the bot name, Discord role IDs, model, and quota settings.
Tokens and API keys go to the OS keyring when available — never plaintext.

Examples:
  pubai setup`,
		RunE: runSetup,
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := assistant.DefaultConfig()

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║            Pub-AI — Setup Wizard             ║")
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()

	// ── Step 1: Assistant name ──
	fmt.Printf("1. Assistant name [%s]: ", cfg.Name)
	if name := readLine(reader); name != "" {
		cfg.Name = name
	}

	// ── Step 2: Trigger ──
	fmt.Printf("2. Command trigger [%s]: ", cfg.Trigger)
	if trigger := readLine(reader); trigger != "" {
		cfg.Trigger = trigger
	}

	// ── Step 3: Model ──
	fmt.Printf("3. Hosted model [%s]: ", cfg.Model)
	if model := readLine(reader); model != "" {
		cfg.Model = model
	}

	// ── Step 4: Role IDs ──
	fmt.Println()
	fmt.Println("   Role IDs come from your Discord server settings")
	fmt.Println("   (Server Settings → Roles → right click → Copy ID).")
	fmt.Println()
	for {
		fmt.Print("4. Admin role ID: ")
		if id := readLine(reader); id != "" {
			cfg.Access.AdminRoleID = id
			break
		}
		fmt.Println("   [!] Admin role ID is required for admin commands.")
	}
	for {
		fmt.Print("5. Buyer role ID: ")
		if id := readLine(reader); id != "" {
			cfg.Access.BuyerRoleID = id
			break
		}
		fmt.Println("   [!] Buyer role ID is required to gate access.")
	}

	// ── Step 6: Unlock word ──
	fmt.Print("6. Permanent-unlock word (empty to disable): ")
	cfg.Access.UnlockWord = readLine(reader)

	// ── Step 7: Discord token ──
	fmt.Println()
	fmt.Print("7. Discord bot token (empty to use DISCORD_TOKEN env): ")
	if tok := readLine(reader); tok != "" {
		if assistant.KeyringAvailable() {
			if err := assistant.StoreKeyring("discord_token", tok); err == nil {
				fmt.Println("   [ok] Token stored in the OS keyring.")
			} else {
				cfg.Channels.Discord.Token = tok
				fmt.Println("   [!] Keyring unavailable, token written to config.yaml.")
			}
		} else {
			cfg.Channels.Discord.Token = tok
			fmt.Println("   [!] Keyring unavailable, token written to config.yaml.")
		}
	}

	// ── Write config ──
	path := "config.yaml"
	if err := assistant.SaveConfigToFile(cfg, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Println()
	fmt.Printf("Config written to %s.\n", path)
	fmt.Println("Set the model API key with: pubai config set-key")
	fmt.Println("Then start the bot with:   pubai serve")
	return nil
}

// readLine reads one trimmed line from the reader.
func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
