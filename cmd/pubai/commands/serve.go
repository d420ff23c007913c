package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/assistant"
	"github.com/suckunalol-jpg/Pub-AI/pkg/pubai/channels/discord"
)

// newServeCmd creates the `pubai serve` command that starts the bot.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot and connect to Discord",
		Long: `Start Pub-AI as a long-running service: connects to the Discord
gateway, loads persisted state, and answers !ai questions from buyers.

Examples:
  pubai serve
  pubai serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	// ── Resolve secrets (keyring → env → config) ──
	assistant.ResolveSecrets(cfg, logger)

	if cfg.Channels.Discord.Token == "" {
		return fmt.Errorf("no Discord token configured. Set DISCORD_TOKEN or run: pubai setup")
	}

	// ── Create assistant ──
	bot := assistant.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Register channels ──
	dc := discord.New(cfg.Channels.Discord, logger)
	if err := bot.ChannelManager().Register(dc); err != nil {
		return fmt.Errorf("registering Discord channel: %w", err)
	}

	// ── Start ──
	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	logger.Info("Pub-AI running. Press Ctrl+C to stop.",
		"name", cfg.Name,
		"model", cfg.Model,
		"trigger", cfg.Trigger,
	)

	// ── Wait for shutdown ──
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	// Graceful shutdown with timeout.
	done := make(chan struct{})
	go func() {
		bot.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out, exiting anyway")
	}

	return nil
}
