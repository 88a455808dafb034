package discord

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestExtractEmoji(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"single unicode", "🙂", []string{"🙂"}},
		{"multiple unicode", "🙂 💀 🔥", []string{"🙂", "💀", "🔥"}},
		{"unicode without spaces", "🙂💀", []string{"🙂💀"}},
		{"custom emoji", "<:gigachad:1234567890>", []string{"<:gigachad:1234567890>"}},
		{"animated custom emoji", "<a:spin:987654321>", []string{"<a:spin:987654321>"}},
		{
			"mixed preserves order",
			"🙂 <:gigachad:1234567890> 💀",
			[]string{"🙂", "<:gigachad:1234567890>", "💀"},
		},
		{
			"custom emoji glued to unicode",
			"<:gigachad:1234567890>🙂",
			[]string{"<:gigachad:1234567890>", "🙂"},
		},
		{"empty input", "", nil},
		{"whitespace only", "   ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractEmoji(tc.input)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("extractEmoji(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestReactionParam(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"🙂", "🙂"},
		{"<:gigachad:1234567890>", "gigachad:1234567890"},
		{"<a:spin:987654321>", "spin:987654321"},
	}
	for _, tc := range cases {
		if got := reactionParam(tc.in); got != tc.want {
			t.Errorf("reactionParam(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMessageCountString(t *testing.T) {
	cases := []struct {
		n             int
		correctSuffix bool
		want          string
	}{
		{0, false, "0 messages"},
		{1, false, "1 message"},
		{2, false, "2 messages"},
		{1, true, "1 message was a correct count."},
		{5, true, "5 messages were correct counts."},
	}
	for _, tc := range cases {
		if got := messageCountString(tc.n, tc.correctSuffix); got != tc.want {
			t.Errorf("messageCountString(%d, %t) = %q, want %q", tc.n, tc.correctSuffix, got, tc.want)
		}
	}
}
