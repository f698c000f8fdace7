// Package commands implements the bossbot CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bossbot",
		Short: "Александр Барашкин - a grumpy dev-team boss for your chats",
		Long: `bossbot plays the head of a software department in Telegram and
Discord group chats. It scolds games, nags about tests, fires those who
insult it, and answers everything else through an LLM.

Examples:
  bossbot serve
  bossbot console
  bossbot classify "кто опять сломал билд?"
  bossbot setup`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newConsoleCmd(),
		newClassifyCmd(),
		newSetupCmd(),
		newConfigCmd(),
		newHealthCmd(version),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")

	return rootCmd
}
