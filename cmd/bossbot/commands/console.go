package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jholhewres/bossbot/pkg/bossbot/channels"
	"github.com/jholhewres/bossbot/pkg/bossbot/channels/console"
)

// newConsoleCmd creates the `bossbot console` command: a local chat with
// the boss in the terminal.
func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Talk to the boss from the terminal",
		Long: `Open an interactive session with the bot. Every line is treated as
addressed to the boss. Needs an LLM key but no platform token.
Exit with Ctrl+D.

Examples:
  bossbot console
  bossbot console --name Иван`,
		RunE: runConsole,
	}

	cmd.Flags().String("name", "", "your name as the boss will call you")
	cmd.Flags().Bool("idle", false, "let the boss nudge you when you go quiet")
	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Logs go to stderr and stay quiet unless asked for, so they don't
	// interleave with the conversation.
	logger, closeLog := newLogger(cmd, cfg, os.Stderr, slog.LevelWarn)
	defer closeLog()

	if err := cfg.ValidateLocal(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	name, _ := cmd.Flags().GetString("name")
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".bossbot_history")
	}

	repl := console.New(console.Config{
		Speaker:     name,
		BotName:     cfg.Name,
		Prompt:      "> ",
		HistoryFile: historyFile,
	}, logger)

	manager := channels.NewManager(logger)
	if err := manager.Register(repl); err != nil {
		return err
	}

	rt, err := buildBot(ctx, cfg, manager, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer manager.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "%s на связи. Ctrl+D чтобы уйти.\n", cfg.Name)

	runCtx, cancelRun := context.WithCancel(ctx)
	runDone := make(chan struct{})
	go func() {
		rt.bot.Run(runCtx)
		close(runDone)
	}()

	cfg.Idle.Enabled, _ = cmd.Flags().GetBool("idle")
	defer rt.startNudger(runCtx, cfg, manager, logger)()

	select {
	case <-repl.Done():
	case <-ctx.Done():
	}
	cancelRun()
	<-runDone
	return nil
}
