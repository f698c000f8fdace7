package persona

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCompose_LongInputCutsAtWord(t *testing.T) {
	t.Parallel()

	// 125 words of "слово" joined by spaces: 749 runes.
	input := strings.TrimSpace(strings.Repeat("слово ", 125))
	if n := utf8.RuneCountInString(input); n <= 700 {
		t.Fatalf("fixture too short: %d", n)
	}
	input += "!" // 750 runes

	got := NewComposer(700).Compose(input, "Иван")

	if n := utf8.RuneCountInString(got); n > 701 {
		t.Errorf("length = %d, want <= 701", n)
	}
	if len(got) > len(input) {
		t.Errorf("composed reply longer than input")
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Fatalf("missing ellipsis: %q", got[len(got)-10:])
	}

	head := strings.TrimSuffix(got, Ellipsis)
	if !strings.HasPrefix(input, head) {
		t.Fatal("head is not a prefix of the input")
	}
	next, _ := utf8.DecodeRuneInString(input[len(head):])
	if next != ' ' {
		t.Errorf("cut mid-word, next rune %q", next)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"space at limit", "aaaa bbbb", 4, "aaaa…"},
		{"word straddles limit", "aa bbbb", 4, "aa…"},
		{"single long word", "aaaaaaaaaa", 4, "aaaa…"},
		{"cyrillic", "один два три", 6, "один…"},
		{"trailing spaces trimmed", "aa   bbbbbb", 6, "aa…"},
		{"disabled", "anything goes", 0, "anything goes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestFillName(t *testing.T) {
	t.Parallel()

	if got := FillName("Привет, {ИМЯ}! Как дела, ИМЯ?", "Иван"); got != "Привет, Иван! Как дела, Иван?" {
		t.Errorf("got %q", got)
	}
	if got := FillName("ИМЯ", ""); got != DefaultSpeakerName {
		t.Errorf("empty name: got %q", got)
	}
}

func TestNewComposer_Default(t *testing.T) {
	t.Parallel()
	if c := NewComposer(0); c.MaxChars != DefaultMaxChars {
		t.Errorf("MaxChars = %d, want %d", c.MaxChars, DefaultMaxChars)
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()
	got := BuildPrompt("user: привет\nboss: здравствуй", "Иван", "как дела")
	want := "user: привет\nboss: здравствуй\nСотрудник Иван пишет: как дела"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
