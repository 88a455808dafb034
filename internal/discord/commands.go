package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Gitfoe/ChadCounting/internal/game"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "Gives information about ChadCounting.",
		},
		{
			Name:        "set",
			Description: "Admins only: sets and configures various settings for ChadCounting.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Admins only: sets the channel for ChadCounting to the current channel.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "banning",
					Description: "Admins only: configure the banning settings. No parameters gives current settings.",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "banning", Description: "Enable or disable banning altogether. Default: True"},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "minimum_ban", Description: "The minimum ban duration in minutes. Default: 1"},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "maximum_ban", Description: "The maximum ban duration in minutes. Default: 120"},
						{Type: discordgo.ApplicationCommandOptionNumber, Name: "ban_range", Description: "The base of the exponential banning curve. Default: 1.1"},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "troll_amplifier", Description: "How much harder than the maximum a troll is penalized. Default: 7"},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "pass_doublecount", Description: "Ignore (enabled) or penalize (disabled) double counting. Default: False"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reactions",
					Description: "Admins only: configure the correct/incorrect count reactions.",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "correct_reactions", Description: "One or more emoji for a correct count. Default: 🙂"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "incorrect_reactions", Description: "One or more emoji for an incorrect count. Default: 💀"},
					},
				},
			},
		},
		{
			Name:        "count",
			Description: "Gives various counting statuses.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "current",
					Description: "Gives the current count in case you're unsure or want to double check.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "highest",
					Description: "Gives the highest count that has been achieved in this Discord server.",
				},
			},
		},
		{
			Name:        "stats",
			Description: "Gives various counting statistics.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "user",
					Description: "Gives counting statistics of a user for this Discord server.",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Optional: the user you want to check the stats of."},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "server",
					Description: "Gives counting statistics of this Discord server.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "global",
					Description: "Gives counting statistics of this server against other servers.",
				},
			},
		},
		{
			Name:        "banrate",
			Description: "Shows the ban levels and the consequences of messing up the count.",
		},
	}
}

// Commands returns the name/description pairs of all registered commands,
// for the bot-directory pushes.
func (b *Bot) Commands() [][2]string {
	defs := commandDefinitions()
	out := make([][2]string, 0, len(defs))
	for _, c := range defs {
		out = append(out, [2]string{c.Name, c.Description})
	}
	return out
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commandDefinitions()); err != nil {
		return fmt.Errorf("error overwriting application commands: %s", err)
	}
	b.l.Infow("registered application commands", "count", len(commandDefinitions()))
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.safely("interaction", func() {
		if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" {
			return
		}
		data := i.ApplicationCommandData()
		switch data.Name {
		case "help":
			b.handleHelp(i)
		case "set":
			sub := data.Options[0]
			switch sub.Name {
			case "channel":
				b.handleSetChannel(i)
			case "banning":
				b.handleSetBanning(i, sub.Options)
			case "reactions":
				b.handleSetReactions(i, sub.Options)
			}
		case "count":
			sub := data.Options[0]
			switch sub.Name {
			case "current":
				b.handleCountCurrent(i)
			case "highest":
				b.handleCountHighest(i)
			}
		case "stats":
			sub := data.Options[0]
			switch sub.Name {
			case "user":
				b.handleStatsUser(i, sub.Options)
			case "server":
				b.handleStatsServer(i)
			case "global":
				b.handleStatsGlobal(i)
			}
		case "banrate":
			b.handleBanRate(i)
		}
	})
}

func (b *Bot) respond(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	b.respondData(i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}, ephemeral)
}

func (b *Bot) respondData(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, ephemeral bool) {
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.l.Errorw("error responding to interaction", "err", err)
	}
}

// respondErr reports a failed command back to its triggering context; the
// failure stays local to this interaction.
func (b *Bot) respondErr(i *discordgo.InteractionCreate, err error) {
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		embed := newEmbed("No can do", "", verr.Reason+"\nNo changes were made. Try again, chad.")
		b.respond(i, embed, true)
		return
	}
	b.l.Errorw("command failed", "err", err)
	embed := newEmbed("Error", "", fmt.Sprintf("An error occurred executing the command. Please send this to a developer of ChadCounting:\n```%s```", err))
	b.respond(i, embed, true)
}

// checkChannel enforces that game commands run in the counting channel, like
// the rest of the counting chatter.
func (b *Bot) checkChannel(i *discordgo.InteractionCreate) bool {
	channelID, ok := b.game.CountingChannel(i.GuildID)
	if !ok {
		embed := newEmbed("Incorrect channel", "",
			"You can only execute ChadCounting commands in the counting channel, however, it has not been set yet. If you are an admin of this server, use the command `/set channel` in the channel you want to count in.")
		b.respond(i, embed, true)
		return false
	}
	if i.ChannelID != channelID {
		embed := newEmbed("Incorrect channel", "",
			fmt.Sprintf("You can only execute ChadCounting commands in the counting channel, which is <#%s>. Use `/help` for more information.", channelID))
		b.respond(i, embed, true)
		return false
	}
	return true
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}
