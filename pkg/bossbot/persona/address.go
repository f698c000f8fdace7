package persona

import "strings"

// AddressFilter decides whether a message is meant for the bot.
type AddressFilter struct {
	aliases []string
}

// NewAddressFilter lowers and stores aliases. No aliases selects DefaultAliases.
func NewAddressFilter(aliases []string) *AddressFilter {
	if len(aliases) == 0 {
		aliases = DefaultAliases
	}
	lowered := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			lowered = append(lowered, a)
		}
	}
	return &AddressFilter{aliases: lowered}
}

// Addressed reports whether lowered text mentions an alias or the message
// replies to one of the bot's own messages.
func (f *AddressFilter) Addressed(text string, replyToBot bool) bool {
	return replyToBot || ContainsAny(text, f.aliases)
}

// Aliases returns the lowered alias list.
func (f *AddressFilter) Aliases() []string {
	return append([]string(nil), f.aliases...)
}
