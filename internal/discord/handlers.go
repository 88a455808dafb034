package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Gitfoe/ChadCounting/internal/game"
	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.safely("ready", func() {
		b.game.SetBotUser(r.User.ID)
		if !b.skipRegister {
			if err := b.registerCommands(); err != nil {
				b.l.Errorw("error registering commands", "err", err)
			}
		}
		// Catch-up runs on the dispatch goroutine, so live messages queue
		// behind it and cannot interleave mid-scan.
		for _, g := range r.Guilds {
			if err := b.game.EnsureGuild(g.ID); err != nil {
				b.l.Errorw("error ensuring guild", "guild", g.ID, "err", err)
				continue
			}
			b.catchUpGuild(g.ID)
		}
		if b.OnReady != nil {
			b.OnReady()
		}
		b.l.Infow("gateway ready", "guilds", len(r.Guilds))
	})
}

func (b *Bot) onResumed(s *discordgo.Session, r *discordgo.Resumed) {
	b.safely("resumed", func() {
		for _, g := range s.State.Guilds {
			b.catchUpGuild(g.ID)
		}
		b.l.Infow("gateway resumed")
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.safely("guild_create", func() {
		if err := b.game.EnsureGuild(g.ID); err != nil {
			b.l.Errorw("error adding guild", "guild", g.ID, "err", err)
		}
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.safely("message_create", func() {
		if m.GuildID == "" || m.Author == nil {
			return
		}
		res, err := b.game.HandleMessage(models.Message{
			ID:        m.ID,
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
			CreatedAt: m.Timestamp,
		})
		if err != nil {
			b.l.Errorw("error handling message", "guild", m.GuildID, "err", err)
			return
		}
		b.applyEffects(m.ChannelID, m.ID, res.Effects)
	})
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	b.safely("message_delete", func() {
		if m.GuildID == "" {
			return
		}
		msg := models.Message{
			ID:        m.ID,
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
		}
		if cached := m.BeforeDelete; cached != nil && cached.Author != nil {
			msg.AuthorID = cached.Author.ID
			msg.AuthorBot = cached.Author.Bot
			msg.CreatedAt = cached.Timestamp
		} else if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			// Without a cached copy the deleter stays anonymous; the match on
			// creation time still lifts the previous-user lock.
			msg.CreatedAt = ts
		} else {
			return
		}
		effects, err := b.game.HandleMessageDelete(msg)
		if err != nil {
			b.l.Errorw("error handling deleted message", "guild", m.GuildID, "err", err)
			return
		}
		if len(effects) == 0 {
			return
		}
		channelID, ok := b.game.CountingChannel(m.GuildID)
		if !ok {
			return
		}
		// The trigger no longer exists, so effects go to the channel itself.
		b.applyEffects(channelID, "", effects)
	})
}

// applyEffects executes the ordered effect list the core produced. A missing
// messageID means the reply cannot reference a message and reactions have no
// target.
func (b *Bot) applyEffects(channelID, messageID string, effects []game.Effect) {
	for _, e := range effects {
		switch e.Type {
		case game.EffectReply:
			send := &discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{newEmbed(e.Title, "", e.Body)},
			}
			if messageID != "" {
				send.Reference = &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
			}
			if _, err := b.session.ChannelMessageSendComplex(channelID, send); err != nil {
				b.l.Errorw("error sending reply", "channel", channelID, "err", err)
			}
		case game.EffectReaction:
			if messageID == "" {
				continue
			}
			if err := b.session.MessageReactionAdd(channelID, messageID, reactionParam(e.Emoji)); err != nil {
				b.l.Errorw("error adding reaction", "channel", channelID, "emoji", e.Emoji, "err", err)
			}
		case game.EffectBanNotice:
			b.l.Infow("user banned from counting", "channel", channelID, "user", e.UserID, "minutes", e.Minutes)
		}
	}
}
