package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jholhewres/bossbot/pkg/bossbot/boss"
	"github.com/jholhewres/bossbot/pkg/bossbot/llm"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
	"github.com/jholhewres/bossbot/pkg/bossbot/nudger"
	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// loadConfig loads the config from --config, a discovered file, or
// defaults plus environment. It returns the path used ("" for none).
func loadConfig(cmd *cobra.Command) (*boss.Config, string, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = boss.FindConfigFile()
	}

	cfg, err := boss.LoadConfig(path, slog.Default())
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// newLogger builds the root logger from the logging config. Output goes
// to out and, when logging.file is set, to a size-rotated file as well.
// The returned func closes the file.
func newLogger(cmd *cobra.Command, cfg *boss.Config, out io.Writer, minLevel slog.Level) (*slog.Logger, func()) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	level := minLevel
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = max(level, slog.LevelWarn)
	case "error":
		level = max(level, slog.LevelError)
	}
	if verbose {
		level = slog.LevelDebug
	}

	closeFn := func() {}
	if cfg.Logging.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotated)
		closeFn = func() { _ = rotated.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn
}

// runtime is a fully wired bot plus what shuts it down.
type runtime struct {
	bot    *boss.Bot
	picker *persona.RandPicker
	db     *memory.SQLite
}

// buildBot creates the LLM provider, the chat store (with optional SQLite
// persistence) and the bot on top of transport.
func buildBot(ctx context.Context, cfg *boss.Config, transport boss.Transport, logger *slog.Logger) (*runtime, error) {
	completer, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	rt := &runtime{picker: persona.NewTimePicker()}
	store := memory.NewStore(cfg.MaxHistory, logger)

	if cfg.State.Path != "" {
		db, err := memory.OpenSQLite(cfg.State.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Attach(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		rt.db = db
		logger.Info("chat state persisted", "path", cfg.State.Path, "chats", store.Len())
	}

	rt.bot = boss.New(cfg, transport, completer, logger,
		boss.WithPicker(rt.picker),
		boss.WithStore(store),
	)
	return rt, nil
}

// startNudger starts the idle nudger when enabled. The returned func stops it.
func (rt *runtime) startNudger(ctx context.Context, cfg *boss.Config, sender nudger.Sender, logger *slog.Logger) func() {
	if !cfg.Idle.Enabled {
		return func() {}
	}
	n := nudger.New(nudger.Config{
		MinInterval: cfg.Idle.MinInterval,
		MaxInterval: cfg.Idle.MaxInterval,
		Threshold:   cfg.Idle.Threshold,
		Phrases:     cfg.IdlePhrases(),
	}, rt.bot.Store(), sender, rt.picker, rt.picker, logger)
	n.Start(ctx)
	return n.Stop
}

// close releases the state database.
func (rt *runtime) close(logger *slog.Logger) {
	if rt.db == nil {
		return
	}
	if err := rt.db.Close(); err != nil {
		logger.Warn("closing state database", "error", err)
	}
}
