package game

import (
	"sort"
)

// GuildStats is the counting status of one guild.
type GuildStats struct {
	GuildID      string
	CurrentCount int
	HighestCount int
	AverageCount float64
	Attempts     int
	TotalCounts  int
	PercentOK    float64
}

// UserStats is one user's tally within a guild.
type UserStats struct {
	UserID          string
	CorrectCounts   int
	IncorrectCounts int
}

// TotalCounts is the sum of correct and incorrect attempts.
func (u UserStats) TotalCounts() int {
	return u.CorrectCounts + u.IncorrectCounts
}

// PercentCorrect returns the share of correct attempts, or 0 with ok=false
// when the user never counted.
func (u UserStats) PercentCorrect() (float64, bool) {
	total := u.TotalCounts()
	if total == 0 {
		return 0, false
	}
	return float64(u.CorrectCounts) / float64(total) * 100, true
}

// GuildStatsFor summarizes a guild's counting state.
func (g *Game) GuildStatsFor(guildID string) (GuildStats, error) {
	if err := g.store.Ensure(guildID); err != nil {
		return GuildStats{}, err
	}
	rec, _ := g.store.Get(guildID)
	stats := GuildStats{
		GuildID:      guildID,
		CurrentCount: rec.CurrentCount,
		HighestCount: rec.HighestCount,
		AverageCount: rec.AverageCount(),
		Attempts:     len(rec.PreviousCounts),
	}
	correct := 0
	for _, u := range rec.Users {
		stats.TotalCounts += u.CorrectCounts + u.IncorrectCounts
		correct += u.CorrectCounts
	}
	if stats.TotalCounts > 0 {
		stats.PercentOK = float64(correct) / float64(stats.TotalCounts) * 100
	}
	return stats, nil
}

// UserStatsFor returns one user's tally, with ok=false when the user never
// participated in that guild.
func (g *Game) UserStatsFor(guildID, userID string) (UserStats, bool) {
	rec, found := g.store.Get(guildID)
	if !found {
		return UserStats{}, false
	}
	u, ok := rec.Users[userID]
	if !ok {
		return UserStats{}, false
	}
	return UserStats{UserID: userID, CorrectCounts: u.CorrectCounts, IncorrectCounts: u.IncorrectCounts}, true
}

// ActiveGuildCount reports in how many guilds a user has participated.
func (g *Game) ActiveGuildCount(userID string) int {
	n := 0
	for _, rec := range g.store.Snapshot() {
		if _, ok := rec.Users[userID]; ok {
			n++
		}
	}
	return n
}

// Leaderboard returns the guild's users ordered by total attempts, correct
// counts breaking ties, capped at limit.
func (g *Game) Leaderboard(guildID string, limit int) []UserStats {
	rec, ok := g.store.Get(guildID)
	if !ok {
		return nil
	}
	users := make([]UserStats, 0, len(rec.Users))
	for id, u := range rec.Users {
		users = append(users, UserStats{UserID: id, CorrectCounts: u.CorrectCounts, IncorrectCounts: u.IncorrectCounts})
	}
	sort.Slice(users, func(i, j int) bool {
		ti, tj := users[i].TotalCounts(), users[j].TotalCounts()
		if ti != tj {
			return ti > tj
		}
		if users[i].CorrectCounts != users[j].CorrectCounts {
			return users[i].CorrectCounts > users[j].CorrectCounts
		}
		return users[i].UserID < users[j].UserID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users
}

// GlobalLeaderboard ranks all known guilds by accuracy, then volume, then
// high score, capped at limit.
func (g *Game) GlobalLeaderboard(limit int) []GuildStats {
	snap := g.store.Snapshot()
	guilds := make([]GuildStats, 0, len(snap))
	for id, rec := range snap {
		stats := GuildStats{
			GuildID:      id,
			CurrentCount: rec.CurrentCount,
			HighestCount: rec.HighestCount,
			AverageCount: rec.AverageCount(),
			Attempts:     len(rec.PreviousCounts),
		}
		correct := 0
		for _, u := range rec.Users {
			stats.TotalCounts += u.CorrectCounts + u.IncorrectCounts
			correct += u.CorrectCounts
		}
		if stats.TotalCounts > 0 {
			stats.PercentOK = float64(correct) / float64(stats.TotalCounts) * 100
		}
		guilds = append(guilds, stats)
	}
	sort.Slice(guilds, func(i, j int) bool {
		if guilds[i].PercentOK != guilds[j].PercentOK {
			return guilds[i].PercentOK > guilds[j].PercentOK
		}
		if guilds[i].TotalCounts != guilds[j].TotalCounts {
			return guilds[i].TotalCounts > guilds[j].TotalCounts
		}
		if guilds[i].HighestCount != guilds[j].HighestCount {
			return guilds[i].HighestCount > guilds[j].HighestCount
		}
		return guilds[i].GuildID < guilds[j].GuildID
	})
	if limit > 0 && len(guilds) > limit {
		guilds = guilds[:limit]
	}
	return guilds
}

// banRateCap bounds the curve sampling for very flat curves.
const banRateCap = 1000

// BanRateLevels samples the penalty curve from count 0 upwards until it
// settles at the cap (and at least past the average), for the ban-rate graph.
func (g *Game) BanRateLevels(guildID string) ([]int, BanSettings, error) {
	settings, err := g.BanSettingsFor(guildID)
	if err != nil {
		return nil, BanSettings{}, err
	}
	rec, _ := g.store.Get(guildID)
	average := rec.AverageCount()

	levels := []int{}
	count := 0
	level := settings.MaximumBan / 2
	for float64(count) <= average || (level >= settings.MinimumBan && level < settings.MaximumBan) {
		level = Penalize(count, average, settings.MinimumBan, settings.MaximumBan, settings.CurveBase, settings.TrollMultiplier, count)
		levels = append(levels, level)
		count++
		if count >= banRateCap {
			break
		}
	}
	return levels, settings, nil
}
