package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Gitfoe/ChadCounting/internal/game"
)

func (b *Bot) handleSetChannel(i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		embed := newEmbed("ChadCounting channel not set", "", "Sorry, you don't have the rights to change the channel for counting.")
		b.respond(i, embed, true)
		return
	}
	if err := b.game.SetCountingChannel(i.GuildID, i.ChannelID); err != nil {
		b.respondErr(i, err)
		return
	}
	embed := newEmbed("ChadCounting channel set", "", fmt.Sprintf("The counting channel is now <#%s>.", i.ChannelID))
	b.respond(i, embed, true)
}

func (b *Bot) handleSetBanning(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.checkChannel(i) {
		return
	}
	om := optionMap(opts)

	var upd game.BanSettingsUpdate
	if o, ok := om["banning"]; ok {
		v := o.BoolValue()
		upd.Enabled = &v
	}
	if o, ok := om["minimum_ban"]; ok {
		v := int(o.IntValue())
		upd.MinimumBan = &v
	}
	if o, ok := om["maximum_ban"]; ok {
		v := int(o.IntValue())
		upd.MaximumBan = &v
	}
	if o, ok := om["ban_range"]; ok {
		v := o.FloatValue()
		upd.CurveBase = &v
	}
	if o, ok := om["troll_amplifier"]; ok {
		v := int(o.IntValue())
		upd.TrollMultiplier = &v
	}
	if o, ok := om["pass_doublecount"]; ok {
		v := o.BoolValue()
		upd.PassDoublecount = &v
	}

	configure := len(opts) > 0
	if configure && !isAdmin(i) {
		embed := newEmbed("Banning settings", "", "Sorry, you don't have the rights to change the banning settings.")
		b.respond(i, embed, true)
		return
	}

	settings, err := b.game.UpdateBanSettings(i.GuildID, upd)
	if err != nil {
		b.respondErr(i, err)
		return
	}

	body := fmt.Sprintf(
		"**Banning enabled:** %t\n**Minimum ban duration:** %s\n**Maximum ban duration:** %s\n**Ban curve base:** %g\n**Troll amplifier:** %dx\n**Ignoring of double counts:** %t",
		settings.Enabled,
		game.MinutesString(settings.MinimumBan, false),
		game.MinutesString(settings.MaximumBan, false),
		settings.CurveBase,
		settings.TrollMultiplier,
		settings.PassDoublecount,
	)
	if configure {
		embed := newEmbed(fmt.Sprintf("%s changed the banning settings to the following", interactionUser(i).Username), "", body)
		b.respond(i, embed, false)
		return
	}
	embed := newEmbed("Here you go, the current banning settings", "", body)
	b.respond(i, embed, true)
}

func (b *Bot) handleSetReactions(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.checkChannel(i) {
		return
	}
	om := optionMap(opts)
	configure := len(opts) > 0
	if configure && !isAdmin(i) {
		embed := newEmbed("Reaction settings", "", "Sorry, you don't have the rights to change the bot's reactions.")
		b.respond(i, embed, true)
		return
	}

	var correct, incorrect []string
	if o, ok := om["correct_reactions"]; ok {
		correct = extractEmoji(o.StringValue())
	}
	if o, ok := om["incorrect_reactions"]; ok {
		incorrect = extractEmoji(o.StringValue())
	}
	if err := b.game.SetReactions(i.GuildID, correct, incorrect); err != nil {
		b.respondErr(i, err)
		return
	}

	curCorrect, curIncorrect, err := b.game.Reactions(i.GuildID)
	if err != nil {
		b.respondErr(i, err)
		return
	}
	body := fmt.Sprintf(
		"**Correct count reaction(s):** %s\n**Incorrect count reaction(s):** %s",
		strings.Join(curCorrect, ""),
		strings.Join(curIncorrect, ""),
	)
	if configure {
		embed := newEmbed(fmt.Sprintf("%s changed ChadCounting's reactions to the following", interactionUser(i).Username), "", body)
		b.respond(i, embed, false)
		return
	}
	embed := newEmbed("Here you go, the current reactions", "", body)
	b.respond(i, embed, true)
}
