package discord

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor   = 0xCA93FF
	thumbnailURL = "https://github.com/Gitfoe/ChadCounting/blob/main/gigachad.jpeg?raw=true"
)

func newEmbed(title, description, body string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       embedColor,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: thumbnailURL},
	}
	if body != "" {
		addField(e, body)
	}
	return e
}

func addField(e *discordgo.MessageEmbed, value string) {
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Value: value})
}

// messageCountString pluralizes a scanned-message count, optionally with the
// correct-count suffix used by the catch-up recap.
func messageCountString(n int, correctSuffix bool) string {
	s := fmt.Sprintf("%d messages", n)
	if n == 1 || n == -1 {
		s = fmt.Sprintf("%d message", n)
	}
	if correctSuffix {
		if n == 1 || n == -1 {
			return s + " was a correct count."
		}
		return s + " were correct counts."
	}
	return s
}

var customEmojiRe = regexp.MustCompile(`<a?:[a-zA-Z0-9_]+:[0-9]+>`)

// extractEmoji pulls custom and unicode emoji out of a settings string,
// preserving their order. Custom emoji keep their full <name:id> form;
// anything else is split on whitespace and taken verbatim.
func extractEmoji(input string) []string {
	type hit struct {
		emoji string
		pos   int
	}
	var hits []hit

	locs := customEmojiRe.FindAllStringIndex(input, -1)
	masked := []byte(input)
	for _, loc := range locs {
		hits = append(hits, hit{input[loc[0]:loc[1]], loc[0]})
		for i := loc[0]; i < loc[1]; i++ {
			masked[i] = ' '
		}
	}

	rest := string(masked)
	offset := 0
	for _, tok := range strings.Fields(rest) {
		pos := strings.Index(rest[offset:], tok) + offset
		offset = pos + len(tok)
		hits = append(hits, hit{tok, pos})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.emoji)
	}
	return out
}

// reactionParam converts a stored emoji into the name:id form the reaction
// endpoint wants; unicode emoji pass through.
func reactionParam(emoji string) string {
	if !strings.HasPrefix(emoji, "<") || !strings.HasSuffix(emoji, ">") {
		return emoji
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(emoji, "<"), ">")
	inner = strings.TrimPrefix(inner, "a")
	return strings.TrimPrefix(inner, ":")
}
