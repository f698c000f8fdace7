package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jholhewres/bossbot/pkg/bossbot/boss"
)

// newConfigCmd creates the `bossbot config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the bot configuration",
		Long: `Manage the bossbot configuration file.

Examples:
  bossbot config init
  bossbot config show`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			cfg := boss.DefaultConfig()
			cfg.LLM.APIKey = "${" + boss.EnvAPIKey + "}"
			cfg.Channels.Telegram.Token = "${" + boss.EnvTelegramToken + "}"
			cfg.Channels.Discord.Token = "${" + boss.EnvDiscordToken + "}"

			if err := boss.SaveConfigToFile(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "config.yaml", "where to write the file")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			shown := *cfg
			shown.LLM.APIKey = boss.Redact(cfg.LLM.APIKey)
			shown.Channels.Telegram.Token = boss.Redact(cfg.Channels.Telegram.Token)
			shown.Channels.Discord.Token = boss.Redact(cfg.Channels.Discord.Token)

			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}

			out := cmd.OutOrStdout()
			if path == "" {
				path = "(none, defaults + environment)"
			}
			fmt.Fprintf(out, "# source: %s\n%s", path, data)
			return nil
		},
	}
}
