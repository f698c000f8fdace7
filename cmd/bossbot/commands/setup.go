package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jholhewres/bossbot/pkg/bossbot/boss"
	"github.com/jholhewres/bossbot/pkg/bossbot/llm"
	"github.com/jholhewres/bossbot/pkg/bossbot/memory"
)

// newSetupCmd creates the `bossbot setup` command for interactive configuration.
func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard that writes config.yaml. Tokens and
API keys go to the OS keyring when available; the config file then only
holds ${VAR} references.

Examples:
  bossbot setup
  bossbot setup -o configs/bossbot.yaml`,
		RunE: runSetup,
	}

	cmd.Flags().StringP("output", "o", "config.yaml", "where to write the config")
	return cmd
}

// setupAnswers collects the wizard input.
type setupAnswers struct {
	provider   string
	model      string
	apiKey     string
	telegram   string
	discord    string
	idle       bool
	persist    bool
	useKeyring bool
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("setup needs an interactive terminal; use 'bossbot config init' instead")
	}
	path, _ := cmd.Flags().GetString("output")

	cfg := boss.DefaultConfig()
	a := setupAnswers{
		provider:   cfg.LLM.Provider,
		idle:       cfg.Idle.Enabled,
		useKeyring: boss.KeyringAvailable(),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Options(
					huh.NewOption("Google Gemini", llm.ProviderGemini),
					huh.NewOption("OpenAI-compatible", llm.ProviderOpenAI),
				).
				Value(&a.provider),
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default").
				Value(&a.model),
			huh.NewInput().
				Title("LLM API key").
				EchoMode(huh.EchoModePassword).
				Value(&a.apiKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				Description("From @BotFather. Leave empty to skip Telegram").
				EchoMode(huh.EchoModePassword).
				Value(&a.telegram),
			huh.NewInput().
				Title("Discord bot token").
				Description("Leave empty to skip Discord").
				EchoMode(huh.EchoModePassword).
				Value(&a.discord),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Nudge chats that go quiet?").
				Value(&a.idle),
			huh.NewConfirm().
				Title("Remember chats across restarts (SQLite)?").
				Value(&a.persist),
			huh.NewConfirm().
				Title("Store secrets in the OS keyring?").
				Value(&a.useKeyring),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	applySetup(cfg, a)

	out := cmd.OutOrStdout()
	if a.useKeyring {
		secrets := []struct {
			key, env string
			field    *string
		}{
			{boss.KeyringAPIKey, boss.EnvAPIKey, &cfg.LLM.APIKey},
			{boss.KeyringTelegramToken, boss.EnvTelegramToken, &cfg.Channels.Telegram.Token},
			{boss.KeyringDiscordToken, boss.EnvDiscordToken, &cfg.Channels.Discord.Token},
		}
		for _, s := range secrets {
			if *s.field == "" {
				continue
			}
			if err := boss.StoreKeyring(s.key, *s.field); err != nil {
				fmt.Fprintf(out, "[!] %v; keeping it in the config file\n", err)
				continue
			}
			*s.field = "${" + s.env + "}"
		}
	}

	if err := boss.SaveConfigToFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", path)
	if cfg.Channels.Telegram.Token == "" && cfg.Channels.Discord.Token == "" {
		fmt.Fprintln(out, "No platform token given: try 'bossbot console' first.")
	} else {
		fmt.Fprintln(out, "Start the bot with: bossbot serve")
	}
	return nil
}

// applySetup copies wizard answers into cfg.
func applySetup(cfg *boss.Config, a setupAnswers) {
	cfg.LLM.Provider = a.provider
	cfg.LLM.Model = strings.TrimSpace(a.model)
	cfg.LLM.APIKey = strings.TrimSpace(a.apiKey)
	cfg.Channels.Telegram.Token = strings.TrimSpace(a.telegram)
	cfg.Channels.Discord.Token = strings.TrimSpace(a.discord)
	cfg.Idle.Enabled = a.idle
	if a.persist {
		cfg.State.Path = memory.DefaultPath
	}
}
