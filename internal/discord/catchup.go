package discord

import (
	"fmt"
	"sort"

	"github.com/Gitfoe/ChadCounting/internal/game"
	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// catchUpGuild replays the history a guild missed while the bot was away.
// The window is fetched here, then handed to the scanner in one piece. It is
// called from the event dispatch goroutine, so live messages queue behind the
// scan instead of interleaving with it.
func (b *Bot) catchUpGuild(guildID string) {
	since, channelID, ok := b.game.NeedsCatchUp(guildID)
	if !ok {
		return
	}

	raw, err := b.session.ChannelMessages(channelID, game.CatchUpLimit, "", timeToSnowflake(since), "")
	if err != nil {
		b.l.Errorw("error fetching history for catch-up", "guild", guildID, "channel", channelID, "err", err)
		return
	}

	history := make([]models.Message, 0, len(raw))
	for _, m := range raw {
		if m.Author == nil || !m.Timestamp.After(since) {
			continue
		}
		history = append(history, models.Message{
			ID:        m.ID,
			GuildID:   guildID,
			ChannelID: channelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
			CreatedAt: m.Timestamp,
		})
	}
	// Replay must be strictly chronological: later validity depends on
	// earlier mutations.
	sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt.Before(history[j].CreatedAt) })

	sum, err := b.game.CatchUp(guildID, history)
	if err != nil {
		b.l.Errorw("error running catch-up scan", "guild", guildID, "err", err)
		return
	}
	for _, replay := range sum.Replays {
		b.applyEffects(channelID, replay.Message.ID, replay.Effects)
	}

	if sum.Correct == 0 && !sum.IncorrectFound {
		return
	}

	body := fmt.Sprintf(
		"ChadCounting was offline for a bit and missed some of your counts. In total, we caught up to %s, and %s",
		messageCountString(sum.Scanned, false),
		messageCountString(sum.Correct, true),
	)
	var footer string
	switch {
	case sum.IncorrectFound:
		body += " However, there was an incorrect count... After an incorrect count, you must start over. Any counts you lads might have made after the incorrect count were not counted."
		footer = "Please start counting again from **1**!"
	case sum.Truncated:
		body += fmt.Sprintf(
			" Unfortunately, %d is the maximum number of messages we can check. Any counts after count %d have not been counted.",
			sum.Scanned, sum.CurrentCount,
		)
		footer = fmt.Sprintf("The current count is **%d**. Please continue counting from there! Anyone can continue counting.", sum.CurrentCount)
	default:
		footer = fmt.Sprintf("The current count is **%d**, so continue counting from there!", sum.CurrentCount)
	}

	embed := newEmbed("ChadCounting is back on track!", "", body)
	addField(embed, footer)
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.l.Errorw("error sending catch-up summary", "guild", guildID, "err", err)
	}
	b.l.Infow("catch-up finished",
		"guild", guildID,
		"scanned", sum.Scanned,
		"correct", sum.Correct,
		"incorrect_found", sum.IncorrectFound,
		"truncated", sum.Truncated,
	)
}
