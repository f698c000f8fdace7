package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/bossbot/pkg/bossbot/persona"
)

// newClassifyCmd creates the `bossbot classify` command that runs the
// trigger table offline.
func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Show how the boss would route a message",
		Long: `Run a message through the address filter and the trigger table
without calling the LLM or any platform.

Examples:
  bossbot classify "начальник, опять тесты?"
  bossbot classify --name Оля "давай поиграем"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("name", persona.DefaultSpeakerName, "speaker name to fill in")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")

	text := strings.ToLower(strings.TrimSpace(strings.Join(args, " ")))
	address := persona.NewAddressFilter(cfg.Aliases)
	classifier := persona.NewClassifier(persona.DefaultRules(cfg.PhraseSet()), nil)
	composer := persona.NewComposer(cfg.MaxChars)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "text:      %s\n", text)
	fmt.Fprintf(out, "addressed: %t\n", address.Addressed(text, false))

	verdict, ok := classifier.Classify(text, name)
	switch {
	case ok:
		fmt.Fprintf(out, "category:  %s\n", verdict.Category)
		fmt.Fprintf(out, "reply:     %s\n", composer.Compose(verdict.Reply, name))
	case verdict.Category != "":
		fmt.Fprintf(out, "category:  %s (no canned reply)\n", verdict.Category)
		fmt.Fprintln(out, "reply:     <llm>")
	default:
		fmt.Fprintln(out, "category:  none")
		fmt.Fprintln(out, "reply:     <llm>")
	}
	return nil
}
