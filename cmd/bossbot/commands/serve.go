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

	"github.com/jholhewres/bossbot/pkg/bossbot/boss"
	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
	"github.com/jholhewres/bossbot/pkg/bossbot/channels/discord"
	"github.com/jholhewres/bossbot/pkg/bossbot/channels/telegram"
)

// newServeCmd creates the `bossbot serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot on the configured chat platforms",
		Long: `Connect to every platform with a token (Telegram, Discord) and
answer messages until interrupted.

Examples:
  bossbot serve
  bossbot serve --channel telegram
  bossbot serve --config ./config.yaml`,
		RunE: runServe,
	}

	cmd.Flags().StringSlice("channel", nil, "channels to enable (telegram, discord)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	logger, closeLog := newLogger(cmd, cfg, os.Stdout, slog.LevelInfo)
	defer closeLog()
	if path != "" {
		logger.Info("config loaded", "path", path)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Register channels ──
	channelFilter, _ := cmd.Flags().GetStringSlice("channel")
	manager := channels.NewManager(logger)

	if hasToken(cfg.Channels.Telegram.Token) && shouldEnable("telegram", channelFilter) {
		if err := manager.Register(telegram.New(cfg.Channels.Telegram, logger)); err != nil {
			logger.Error("failed to register Telegram", "error", err)
		}
	}
	if hasToken(cfg.Channels.Discord.Token) && shouldEnable("discord", channelFilter) {
		if err := manager.Register(discord.New(cfg.Channels.Discord, logger)); err != nil {
			logger.Error("failed to register Discord", "error", err)
		}
	}
	if !manager.HasChannels() {
		return fmt.Errorf("no channel enabled (filter %v)", channelFilter)
	}

	// ── Build bot ──
	rt, err := buildBot(ctx, cfg, manager, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	// ── Start ──
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	runDone := make(chan struct{})
	go func() {
		rt.bot.Run(ctx)
		close(runDone)
	}()
	stopNudger := rt.startNudger(ctx, cfg, manager, logger)

	logger.Info("bossbot running. Press Ctrl+C to stop.",
		"name", cfg.Name,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.ModelName(),
		"idle", cfg.Idle.Enabled,
	)

	// ── Wait for shutdown ──
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping...")

	done := make(chan struct{})
	go func() {
		stopNudger()
		<-runDone
		manager.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out after 10s, forcing exit")
	}
	return nil
}

// hasToken reports whether a platform token is set and expanded.
func hasToken(token string) bool {
	return token != "" && !boss.IsEnvReference(token)
}

// shouldEnable checks a channel against the --channel filter.
func shouldEnable(name string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == name {
			return true
		}
	}
	return false
}
