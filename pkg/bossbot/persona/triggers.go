package persona

import "strings"

// Category names a trigger rule.
type Category string

const (
	CategoryGame   Category = "game"
	CategoryIT     Category = "it"
	CategoryInsult Category = "insult"
	CategoryPraise Category = "praise"
)

// Responder produces the canned reply for a rule hit. Returning ok=false
// stops evaluation without a reply, so the message falls through to the LLM.
type Responder func(text string, pick Picker) (reply string, ok bool)

// Rule is one row of the trigger table.
type Rule struct {
	Category Category
	Keywords []string
	Respond  Responder
}

// Verdict is the outcome of classification. Category is set whenever a rule
// matched, even if that rule declined to reply.
type Verdict struct {
	Category Category
	Reply    string
}

// Classifier evaluates an ordered rule table; the first matching rule wins.
type Classifier struct {
	rules  []Rule
	picker Picker
}

// NewClassifier creates a classifier over rules. A nil picker falls back to
// a time-seeded RandPicker.
func NewClassifier(rules []Rule, picker Picker) *Classifier {
	if picker == nil {
		picker = NewTimePicker()
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Classifier{rules: cp, picker: picker}
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	cp := make([]Rule, len(c.rules))
	copy(cp, c.rules)
	return cp
}

// Classify matches lowered text against the table and returns the reply
// with the speaker name filled in. ok is false when no canned reply applies.
func (c *Classifier) Classify(text, speaker string) (Verdict, bool) {
	for _, r := range c.rules {
		if !ContainsAny(text, r.Keywords) {
			continue
		}
		reply, ok := r.Respond(text, c.picker)
		if !ok {
			return Verdict{Category: r.Category}, false
		}
		return Verdict{Category: r.Category, Reply: FillName(reply, speaker)}, true
	}
	return Verdict{}, false
}

// ContainsAny reports whether text contains any of the substrings.
// Matching is not tokenized: "fun" matches inside "function".
func ContainsAny(text string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// PickFrom responds with a random member of set.
func PickFrom(set []string) Responder {
	return func(_ string, pick Picker) (string, bool) {
		return pick.Pick(set), true
	}
}

// Fixed always responds with tmpl.
func Fixed(tmpl string) Responder {
	return func(string, Picker) (string, bool) {
		return tmpl, true
	}
}

// Narrow picks the first branch whose markers appear in the text. No
// matching branch means no reply.
func Narrow(branches ...Branch) Responder {
	return func(text string, pick Picker) (string, bool) {
		for _, b := range branches {
			if ContainsAny(text, b.Markers) {
				return pick.Pick(b.Phrases), true
			}
		}
		return "", false
	}
}

// Branch is a sub-rule of Narrow.
type Branch struct {
	Markers []string
	Phrases []string
}

// PhraseSet holds the replaceable phrase lists of the default table.
type PhraseSet struct {
	GameScold []string
	Test      []string
	Code      []string
	Fired     string
	Promoted  string
}

// DefaultPhraseSet returns the built-in phrases.
func DefaultPhraseSet() PhraseSet {
	return PhraseSet{
		GameScold: GameScoldPhrases,
		Test:      TestPhrases,
		Code:      CodePhrases,
		Fired:     FiredTemplate,
		Promoted:  PromotedTemplate,
	}
}

// DefaultRules builds the game → IT → insult → praise table.
func DefaultRules(ps PhraseSet) []Rule {
	return []Rule{
		{Category: CategoryGame, Keywords: GameKeywords, Respond: PickFrom(ps.GameScold)},
		{Category: CategoryIT, Keywords: ITKeywords, Respond: Narrow(
			Branch{Markers: TestingMarkers, Phrases: ps.Test},
			Branch{Markers: CodeMarkers, Phrases: ps.Code},
		)},
		{Category: CategoryInsult, Keywords: BadWords, Respond: Fixed(ps.Fired)},
		{Category: CategoryPraise, Keywords: GoodWords, Respond: Fixed(ps.Promoted)},
	}
}
