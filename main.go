/*
ChadCounting runs a Discord bot for a collaborative counting game: each
server counts upwards one message at a time, the bot validates every attempt,
and disruptive users are banned on an exponential curve.

It takes in no flags but multiple environment variables that are documented
in the README. State is kept in a single JSON file that is rewritten
atomically after every mutation and backed up before schema changes.
*/
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/Gitfoe/ChadCounting/internal/botlist"
	"github.com/Gitfoe/ChadCounting/internal/discord"
	"github.com/Gitfoe/ChadCounting/internal/game"
	"github.com/Gitfoe/ChadCounting/internal/game/store"
	"github.com/Gitfoe/ChadCounting/internal/logging"
	"github.com/Gitfoe/ChadCounting/internal/status"
)

const botVersion = "1.1.0"

func main() {
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := logging.NewLogger(cfg.Debug)
	defer func() {
		_ = l.Sync()
	}()
	l.Infow("parsed config", "config", cfg)

	st := store.Open(cfg.StatePath, l.Named("store"))
	if err := st.Load(); err != nil {
		// A state file that exists but cannot be parsed aborts startup; there
		// is no default recovery to fall back to.
		l.Fatalf("error loading state: %s", err)
	}

	g := game.New(st, l.Named("game"))

	bot, err := discord.New(discord.Config{
		Token:        cfg.DiscordToken,
		SkipRegister: cfg.SkipRegister,
	}, g, l.Named("discord"))
	if err != nil {
		l.Fatalf("error creating discord bot: %s", err)
	}

	bl := botlist.NewClient(botlist.ClientConfig{
		DiscordbotlistToken: cfg.DiscordbotlistToken,
		TopGGToken:          cfg.TopGGToken,
	}, l.Named("botlist"))
	bot.OnReady = func() {
		ctx := context.Background()
		bl.PushGuildCount(ctx, bot.GuildCount())
		cmds := make([]botlist.Command, 0)
		for _, c := range bot.Commands() {
			cmds = append(cmds, botlist.Command{Name: c[0], Description: c[1]})
		}
		bl.PushCommands(ctx, cmds)
	}

	if err := bot.Start(); err != nil {
		l.Fatalf("error starting bot: %s", err)
	}
	defer bot.Stop()

	s := status.New(l.Named("status"), status.Config{Port: cfg.Port}, func() status.Snapshot {
		return status.Snapshot{Version: botVersion, Guilds: bot.GuildCount()}
	})
	go func() {
		l.Infof("serving status on port %d", cfg.Port)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorw("error while serving", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Info("shutting down")
	_ = s.Shutdown(context.Background())
}

type config struct {
	// Server
	Port int `env:"PORT,default=8080"`

	// State file
	StatePath string `env:"STATE_PATH,default=guild_data.json"`

	// Discord stuffs
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	// If we should not try to register commands with discord
	SkipRegister bool `env:"SKIP_REGISTER"`

	// Bot directories
	DiscordbotlistToken string `env:"DISCORDBOTLIST_TOKEN"`
	TopGGToken          string `env:"TOPGG_TOKEN"`

	Debug bool `env:"DEBUG"`
}

func (c config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("port", c.Port)
	enc.AddString("state_path", c.StatePath)
	enc.AddBool("skip_register", c.SkipRegister)
	enc.AddBool("debug", c.Debug)

	return nil
}
