package discord

import (
	"bytes"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Gitfoe/ChadCounting/internal/chart"
	"github.com/Gitfoe/ChadCounting/internal/game"
)

func (b *Bot) handleHelp(i *discordgo.InteractionCreate) {
	embed := newEmbed(
		"Welcome to ChadCounting",
		"ChadCounting is a Discord bot designed to facilitate collaborative counting. With its focus on accuracy and reliability, ChadCounting is the ideal choice for gigachads looking to push their counting abilities to the limit. You're a chad, aren't you? If so, welcome, and start counting in the counting channel!",
		"",
	)
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{
			Name:  "Rules",
			Value: "Users take turns counting with the next number. Double counting by the same user is not allowed. Use `/set banning` to see this server's configured rules for incorrect counts.",
		},
		&discordgo.MessageEmbedField{
			Name:  "Counting feedback",
			Value: "After a user counts, the bot reacts with emoji to indicate if the count was correct. If the bot is unavailable and doesn't respond, keep counting: it catches up on missed counts upon its return. Unsure of the current count? Use `/count current`.",
		},
	)
	b.respond(i, embed, true)
}

func (b *Bot) handleCountCurrent(i *discordgo.InteractionCreate) {
	if !b.checkChannel(i) {
		return
	}
	stats, err := b.game.GuildStatsFor(i.GuildID)
	if err != nil {
		b.respondErr(i, err)
		return
	}
	embed := newEmbed("Current count", "", fmt.Sprintf(
		"The current count is **%d**. So what should the next number be? That's up to you chads.",
		stats.CurrentCount,
	))
	b.respond(i, embed, false)
}

func (b *Bot) handleCountHighest(i *discordgo.InteractionCreate) {
	if !b.checkChannel(i) {
		return
	}
	stats, err := b.game.GuildStatsFor(i.GuildID)
	if err != nil {
		b.respondErr(i, err)
		return
	}

	body := fmt.Sprintf("The high score is **%d**. ", stats.HighestCount)
	points := 0
	if stats.HighestCount > stats.CurrentCount {
		body += fmt.Sprintf("That's **%d** higher than the current count... ", stats.HighestCount-stats.CurrentCount)
	} else {
		body += "That's exactly the same as the current count! "
		if stats.HighestCount >= 27 {
			points++
		}
	}
	body += fmt.Sprintf("On average you lads counted to **%.2f**, and your current count is ", stats.AverageCount)
	switch {
	case float64(stats.CurrentCount) > stats.AverageCount:
		body += fmt.Sprintf("**%.2f** higher than the average. ", float64(stats.CurrentCount)-stats.AverageCount)
		if stats.AverageCount >= 27 {
			points += 2
		} else {
			points++
		}
	case float64(stats.CurrentCount) < stats.AverageCount:
		body += fmt.Sprintf("**%.2f** lower than the average... ", stats.AverageCount-float64(stats.CurrentCount))
	default:
		body += "exactly the same as the average. "
		if stats.AverageCount >= 27 {
			points++
		}
	}
	body += fmt.Sprintf("You lads messed up the count **%d** ", stats.Attempts)
	if stats.Attempts == 1 {
		body += "time. "
	} else {
		body += "times. "
	}
	body += map[int]string{
		0: "Do better, beta's.",
		1: "Decent work.",
		2: "Well done.",
		3: "Excellent work, chads!",
	}[points]

	b.respond(i, newEmbed("Counting high score", "", body), false)
}

// chadThresholds maps accuracy percentages to ratings, highest first.
var chadThresholds = []struct {
	percent float64
	rating  string
}{
	{99.5, "What an absolute gigachad."},
	{95, "Chad performance."},
	{90, "Not bad, not good."},
	{80, "Nearing beta performance. Do better."},
	{70, "Definitely not chad performance."},
}

func (b *Bot) handleStatsUser(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.checkChannel(i) {
		return
	}
	target := interactionUser(i)
	if o, ok := optionMap(opts)["user"]; ok {
		target = o.UserValue(b.session)
	}

	stats, ok := b.game.UserStatsFor(i.GuildID, target.ID)
	if !ok {
		embed := newEmbed("User statistics", "", fmt.Sprintf(
			"I can't give you the stats of <@%s>, because they haven't participated in ChadCounting yet. Shame.",
			target.ID,
		))
		b.respond(i, embed, false)
		return
	}

	percent, counted := stats.PercentCorrect()
	percentText := "N/A"
	rating := "Full beta performance. Become chad."
	if counted {
		percentText = fmt.Sprintf("%.2f%%", percent)
		for _, t := range chadThresholds {
			if percent >= t.percent {
				rating = t.rating
				break
			}
		}
	}
	body := fmt.Sprintf(
		"**Correct counts:** %d\n**Incorrect counts:** %d\n**Total counts:** %d\n**Percent correct:** %s\n**Active in Discord servers:** %d",
		stats.CorrectCounts,
		stats.IncorrectCounts,
		stats.TotalCounts(),
		percentText,
		b.game.ActiveGuildCount(target.ID),
	)
	embed := newEmbed(fmt.Sprintf("Here you go, the user statistics of %s", target.Username), "", body)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: rating}
	b.respond(i, embed, false)
}

func (b *Bot) handleStatsServer(i *discordgo.InteractionCreate) {
	if !b.checkChannel(i) {
		return
	}
	board := b.game.Leaderboard(i.GuildID, 10)
	if len(board) == 0 {
		embed := newEmbed("Server statistics", "", "Nobody has participated in ChadCounting yet. Shame. Start counting!")
		b.respond(i, embed, false)
		return
	}
	body := ""
	for rank, u := range board {
		line := fmt.Sprintf("**%d. <@%s>** — %d total counts", rank+1, u.UserID, u.TotalCounts())
		if percent, ok := u.PercentCorrect(); ok {
			line += fmt.Sprintf(" (%.2f%% correct), %d correct and %d incorrect counts", percent, u.CorrectCounts, u.IncorrectCounts)
		}
		body += line + "\n"
	}
	b.respond(i, newEmbed("Here you go, the server statistics", "", body), false)
}

func (b *Bot) handleStatsGlobal(i *discordgo.InteractionCreate) {
	if !b.checkChannel(i) {
		return
	}
	board := b.game.GlobalLeaderboard(10)
	body := ""
	rank := 0
	for _, g := range board {
		guild, err := b.session.State.Guild(g.GuildID)
		if err != nil {
			continue
		}
		rank++
		body += fmt.Sprintf(
			"**%d. %s** — highest count: %d, total: %d (%.2f%% correct), current: %d\n",
			rank, guild.Name, g.HighestCount, g.TotalCounts, g.PercentOK, g.CurrentCount,
		)
	}
	if body == "" {
		body = "No servers have participated in ChadCounting yet. Shame. Start counting!"
	}
	b.respond(i, newEmbed("Here you go, the best servers on ChadCounting", "", body), false)
}

func (b *Bot) handleBanRate(i *discordgo.InteractionCreate) {
	if !b.checkChannel(i) {
		return
	}
	levels, settings, err := b.game.BanRateLevels(i.GuildID)
	if err != nil {
		b.respondErr(i, err)
		return
	}

	body := "Banning is currently disabled, however, if it were enabled, here's the banrate. "
	if settings.Enabled {
		body = "Banning is currently enabled, beware! Here's the current banrate, you chad. "
	}
	body += fmt.Sprintf(
		"If you get banned at any later count than on the far right of the graph, you will get banned for %s. Use `/set banning` to see the currently configured banning settings.",
		game.MinutesString(settings.MaximumBan, false),
	)

	guildName := i.GuildID
	if guild, err := b.session.State.Guild(i.GuildID); err == nil {
		guildName = guild.Name
	}
	png, err := chart.BanRate(fmt.Sprintf("ChadCounting banrate of %s", guildName), levels)
	if err != nil {
		b.respondErr(i, fmt.Errorf("error rendering banrate chart: %s", err))
		return
	}

	filename := fmt.Sprintf("ChadCounting-banrate-%s-%s.png", i.GuildID, b.game.Now().UTC().Format("20060102-150405"))
	embed := newEmbed("Banning rate", "", body)
	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + filename}
	b.respondData(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        filename,
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	}, false)
}
