package persona

import "fmt"

// BuildPrompt appends the speaker line to the rendered history.
func BuildPrompt(history, speaker, message string) string {
	if speaker == "" {
		speaker = DefaultSpeakerName
	}
	return fmt.Sprintf("%s\nСотрудник %s пишет: %s", history, speaker, message)
}
