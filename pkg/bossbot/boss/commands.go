package boss

// commands.go implements the chat commands:
//
//	/start   - greeting
//	/help    - list of commands
//	/status  - department status report
//	/tests   - a reminder about tests

import "github.com/jholhewres/bossbot/pkg/bossbot/persona"

// HandleCommand returns the reply for a command (without slash or
// @botname). ok is false for unknown commands, which get no reply.
func (b *Bot) HandleCommand(command, speaker string) (reply string, ok bool) {
	switch command {
	case "start":
		return b.composer.Compose(persona.StartTemplate, speaker), true
	case "help":
		return persona.HelpText, true
	case "status":
		return b.picker.Pick(b.cfg.StatusPhrases()), true
	case "tests":
		return b.composer.Compose(b.picker.Pick(b.cfg.PhraseSet().Test), speaker), true
	default:
		return "", false
	}
}
