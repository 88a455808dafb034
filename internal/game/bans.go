package game

import (
	"math"
	"time"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// RemainingBan returns how many minutes of an active ban are left, or 0 when
// the user was never banned or the ban elapsed. Expiry is computed on read;
// ban state is only ever superseded by a later ban, never cleared.
func RemainingBan(u *models.UserRecord, now time.Time) int {
	if u == nil || u.TimeBanned == nil {
		return 0
	}
	passed := int(math.Round(now.Sub(*u.TimeBanned).Minutes()))
	if passed > u.BanMinutes {
		return 0
	}
	return u.BanMinutes - passed
}

// recordBan stamps the ban window onto the user record. Persistence is the
// caller's job; this always runs inside a store mutation.
func recordBan(u *models.UserRecord, now time.Time, minutes int) {
	t := now
	u.TimeBanned = &t
	u.BanMinutes = minutes
}

// RemainingBanFor looks up the user's remaining ban in a guild, for the
// shells and commands that only have ids.
func (g *Game) RemainingBanFor(guildID, userID string) int {
	rec, ok := g.store.Get(guildID)
	if !ok {
		return 0
	}
	return RemainingBan(rec.Users[userID], g.now())
}
