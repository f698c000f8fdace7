package persona

import (
	"strings"
	"unicode"
)

// DefaultMaxChars is the reply length limit, in runes.
const DefaultMaxChars = 700

// Ellipsis marks a truncated reply.
const Ellipsis = "…"

// Composer formats outgoing replies.
type Composer struct {
	MaxChars int
}

// NewComposer returns a Composer; maxChars <= 0 selects DefaultMaxChars.
func NewComposer(maxChars int) *Composer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Composer{MaxChars: maxChars}
}

// Compose fills the name placeholders and truncates to MaxChars runes at a
// word boundary, appending an ellipsis when it cuts.
func (c *Composer) Compose(raw, speaker string) string {
	return Truncate(FillName(raw, speaker), c.MaxChars)
}

// FillName replaces every name placeholder with name.
func FillName(s, name string) string {
	if name == "" {
		name = DefaultSpeakerName
	}
	for _, ph := range NamePlaceholders {
		s = strings.ReplaceAll(s, ph, name)
	}
	return s
}

// Truncate shortens s to at most max runes plus an ellipsis. The cut lands
// on the last whitespace at or before max; a single word longer than max is
// the only case that gets hard-cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}

	cut := max
	if !unicode.IsSpace(runes[max]) {
		i := max - 1
		for i > 0 && !unicode.IsSpace(runes[i]) {
			i--
		}
		if i > 0 {
			cut = i
		}
	}

	head := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	return head + Ellipsis
}
