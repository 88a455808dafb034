// Package discord is the gateway shell around the game core: it translates
// gateway events into game calls and executes the effects the core returns.
// All game rules live in internal/game; nothing here mutates state directly.
package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Gitfoe/ChadCounting/internal/game"
)

type Config struct {
	Token string
	// SkipRegister disables slash-command registration on ready.
	SkipRegister bool
}

// Bot owns the discordgo session and the handler wiring.
type Bot struct {
	session *discordgo.Session
	game    *game.Game
	l       *zap.SugaredLogger

	skipRegister bool

	// OnReady is called once the gateway reports ready, after catch-up has
	// been kicked off. main uses it for the bot-directory pushes.
	OnReady func()
}

// New builds the session and registers the event handlers. The session is
// not opened until Start.
func New(c Config, g *game.Game, l *zap.SugaredLogger) (*Bot, error) {
	s, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %s", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	// Cache recent messages so a deleted count can be attributed.
	s.State.MaxMessageCount = 200
	// Handlers run one at a time in arrival order. A count's validity depends
	// on the count before it, so concurrent dispatch would let two correct
	// consecutive counts validate out of order.
	s.SyncEvents = true

	b := &Bot{
		session:      s,
		game:         g,
		l:            l,
		skipRegister: c.SkipRegister,
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onResumed)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onMessageDelete)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening gateway: %s", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// GuildCount reports how many guilds the session currently sees.
func (b *Bot) GuildCount() int {
	return len(b.session.State.Guilds)
}

// safely isolates one event handler so a panic in it cannot take down the
// process or corrupt another guild's handling; the store only swaps state in
// after a successful persist, so an aborted handler leaves no partial state.
func (b *Bot) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.l.Errorw("recovered panic in handler", "handler", name, "panic", r)
		}
	}()
	fn()
}

// discordEpoch is the Discord snowflake epoch in Unix milliseconds.
const discordEpoch = 1420070400000

// timeToSnowflake converts a timestamp to the lowest snowflake id created at
// or after it, for history pagination.
func timeToSnowflake(t time.Time) string {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d", uint64(ms)<<22)
}
