package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/bossbot/pkg/bossbot/boss"
)

// healthReport is printed by `bossbot health`.
type healthReport struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Config    string `json:"config,omitempty"`
	Telegram  bool   `json:"telegram"`
	Discord   bool   `json:"discord"`
	Provider  string `json:"llm_provider"`
	Model     string `json:"llm_model"`
	LLMKey    bool   `json:"llm_key"`
	StatePath string `json:"state_path,omitempty"`
	Keyring   bool   `json:"keyring"`
	Error     string `json:"error,omitempty"`
}

// errUnhealthy makes the command exit non-zero after printing the report.
var errUnhealthy = errors.New("unhealthy")

// newHealthCmd creates the `bossbot health` command. Used by Docker
// HEALTHCHECK and monitoring.
func newHealthCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the bot has what it needs to run",
		Long:  `Print the configuration and credential status as JSON. Exits non-zero when serve would refuse to start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := healthReport{Status: "ok", Version: version}

			cfg, path, err := loadConfig(cmd)
			if err != nil {
				report.Status = "error"
				report.Error = err.Error()
			} else {
				report.Config = path
				report.Telegram = hasToken(cfg.Channels.Telegram.Token)
				report.Discord = hasToken(cfg.Channels.Discord.Token)
				report.Provider = cfg.LLM.Provider
				report.Model = cfg.LLM.ModelName()
				report.LLMKey = hasToken(cfg.LLM.APIKey)
				report.StatePath = cfg.State.Path
				report.Keyring = boss.KeyringAvailable()
				if err := cfg.Validate(); err != nil {
					report.Status = "error"
					report.Error = err.Error()
				}
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if report.Status != "ok" {
				return errUnhealthy
			}
			return nil
		},
	}
}
