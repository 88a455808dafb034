package game

import (
	"fmt"
	"time"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// A ValidationError is a refusal of caller-supplied configuration. It carries
// the user-facing text; nothing was mutated when one is returned. The command
// layer may have validated already, but the core re-checks independently.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func refuse(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// BanSettings is the moderation configuration of a guild.
type BanSettings struct {
	Enabled         bool
	MinimumBan      int
	MaximumBan      int
	CurveBase       float64
	TrollMultiplier int
	PassDoublecount bool
}

// A BanSettingsUpdate changes only the fields that are non-nil.
type BanSettingsUpdate struct {
	Enabled         *bool
	MinimumBan      *int
	MaximumBan      *int
	CurveBase       *float64
	TrollMultiplier *int
	PassDoublecount *bool
}

func (u BanSettingsUpdate) empty() bool {
	return u.Enabled == nil && u.MinimumBan == nil && u.MaximumBan == nil &&
		u.CurveBase == nil && u.TrollMultiplier == nil && u.PassDoublecount == nil
}

func banSettingsOf(rec *models.GuildRecord) BanSettings {
	return BanSettings{
		Enabled:         rec.BanningEnabled,
		MinimumBan:      rec.MinimumBan,
		MaximumBan:      rec.MaximumBan,
		CurveBase:       rec.BanCurveBase,
		TrollMultiplier: rec.TrollMultiplier,
		PassDoublecount: rec.PassDoublecount,
	}
}

// BanSettingsFor returns the guild's current moderation settings.
func (g *Game) BanSettingsFor(guildID string) (BanSettings, error) {
	if err := g.store.Ensure(guildID); err != nil {
		return BanSettings{}, err
	}
	rec, _ := g.store.Get(guildID)
	return banSettingsOf(rec), nil
}

// UpdateBanSettings validates and applies a partial settings update. Ranges
// are re-checked here regardless of upstream validation: minimum ≥ 0,
// minimum ≤ maximum, curve base > 1.0, troll multiplier in [1, 1337]. A
// refusal is returned as a *ValidationError and mutates nothing.
func (g *Game) UpdateBanSettings(guildID string, upd BanSettingsUpdate) (BanSettings, error) {
	if upd.empty() {
		return g.BanSettingsFor(guildID)
	}
	var applied BanSettings
	err := g.store.Mutate(guildID, func(rec *models.GuildRecord) error {
		min := rec.MinimumBan
		max := rec.MaximumBan
		if upd.MinimumBan != nil {
			min = *upd.MinimumBan
		}
		if upd.MaximumBan != nil {
			max = *upd.MaximumBan
		}
		if min < 0 {
			return refuse("You can't set the minimum ban duration lower than 0 minutes.")
		}
		if min > max {
			return refuse(
				"You can't set the minimum ban duration higher than the maximum ban duration. You tried to configure %d for the minimum duration and %d for the maximum duration.",
				min, max,
			)
		}
		if upd.CurveBase != nil && *upd.CurveBase <= 1.0 {
			return refuse("The ban curve base must be greater than 1.0. You entered %g.", *upd.CurveBase)
		}
		if upd.TrollMultiplier != nil && (*upd.TrollMultiplier < 1 || *upd.TrollMultiplier > 1337) {
			return refuse("You must enter a troll multiplier between 1 and 1337. You entered %d.", *upd.TrollMultiplier)
		}

		if upd.Enabled != nil {
			rec.BanningEnabled = *upd.Enabled
		}
		rec.MinimumBan = min
		rec.MaximumBan = max
		if upd.CurveBase != nil {
			rec.BanCurveBase = *upd.CurveBase
		}
		if upd.TrollMultiplier != nil {
			rec.TrollMultiplier = *upd.TrollMultiplier
		}
		if upd.PassDoublecount != nil {
			rec.PassDoublecount = *upd.PassDoublecount
		}
		applied = banSettingsOf(rec)
		return nil
	})
	if err != nil {
		return BanSettings{}, err
	}
	return applied, nil
}

// SetCountingChannel points the guild at a counting channel. If no message
// was ever processed, the scan window opens now so a later catch-up doesn't
// request unbounded history.
func (g *Game) SetCountingChannel(guildID, channelID string) error {
	return g.store.Mutate(guildID, func(rec *models.GuildRecord) error {
		rec.CountingChannel = &channelID
		if rec.PreviousMessage == nil {
			now := g.now()
			rec.PreviousMessage = &now
		}
		return nil
	})
}

// CountingChannel returns the configured counting channel, if any.
func (g *Game) CountingChannel(guildID string) (string, bool) {
	rec, ok := g.store.Get(guildID)
	if !ok || rec.CountingChannel == nil {
		return "", false
	}
	return *rec.CountingChannel, true
}

// SetReactions replaces the correct and/or incorrect reaction sets. A nil
// slice leaves that set untouched; a provided set must hold 1 to 10 emoji.
func (g *Game) SetReactions(guildID string, correct, incorrect []string) error {
	if correct == nil && incorrect == nil {
		return nil
	}
	return g.store.Mutate(guildID, func(rec *models.GuildRecord) error {
		for _, set := range [][]string{correct, incorrect} {
			if set == nil {
				continue
			}
			if len(set) < 1 || len(set) > 10 {
				return refuse("Please enter no less than 1 and no more than 10 emoji for one reaction. You entered %d emoji.", len(set))
			}
			for _, e := range set {
				if e == "" {
					return refuse("An empty reaction emoji is not allowed.")
				}
			}
		}
		if correct != nil {
			rec.CorrectReactions = append([]string(nil), correct...)
		}
		if incorrect != nil {
			rec.IncorrectReactions = append([]string(nil), incorrect...)
		}
		return nil
	})
}

// Reactions returns the configured reaction sets.
func (g *Game) Reactions(guildID string) (correct, incorrect []string, err error) {
	if err := g.store.Ensure(guildID); err != nil {
		return nil, nil, err
	}
	rec, _ := g.store.Get(guildID)
	return rec.CorrectReactions, rec.IncorrectReactions, nil
}

// Now exposes the game clock, so shells talk about time consistently with the
// ban ledger.
func (g *Game) Now() time.Time {
	return g.now()
}
