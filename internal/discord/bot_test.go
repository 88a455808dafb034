package discord

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/Gitfoe/ChadCounting/internal/game"
	"github.com/Gitfoe/ChadCounting/internal/game/store"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	st := store.Open(filepath.Join(t.TempDir(), "guild_data.json"), zap.NewNop().Sugar())
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error loading store: %s", err)
	}
	g := game.New(st, zap.NewNop().Sugar())
	b, err := New(Config{Token: "token"}, g, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error creating bot: %s", err)
	}
	return b
}

func TestNewSessionConfig(t *testing.T) {
	b := newTestBot(t)

	// Each count's validity depends on the one before it, so events must be
	// handled one at a time in arrival order.
	if !b.session.SyncEvents {
		t.Errorf("SyncEvents = false, want ordered event dispatch")
	}
	if got := b.session.State.MaxMessageCount; got != 200 {
		t.Errorf("MaxMessageCount = %d, want 200", got)
	}
	for _, intent := range []discordgo.Intent{
		discordgo.IntentsGuilds,
		discordgo.IntentsGuildMessages,
		discordgo.IntentsGuildMessageReactions,
		discordgo.IntentMessageContent,
	} {
		if b.session.Identify.Intents&intent == 0 {
			t.Errorf("intent %d not requested", intent)
		}
	}
}

func TestTimeToSnowflake(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{"discord epoch", time.UnixMilli(discordEpoch), "0"},
		{"before the epoch clamps to zero", time.UnixMilli(0), "0"},
		{"one second in", time.UnixMilli(discordEpoch + 1000), "4194304000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := timeToSnowflake(tc.in); got != tc.want {
				t.Errorf("timeToSnowflake(%v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}
