// Package models provides the structs shared between the game core and the
// state store, put in an independent package to break the dependency cycle
// between `game` and `store`.
package models

import "time"

// A Message is a single inbound chat message as the game core sees it. The
// discord shell translates gateway events into this shape; the core never
// touches the network itself.
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
	CreatedAt time.Time
}

// A UserRecord tracks one user's counting history within a single guild.
// TimeBanned of nil means the user has never been banned; an active ban is
// derived from TimeBanned plus BanMinutes against the wall clock on read.
type UserRecord struct {
	CorrectCounts   int        `json:"correct_counts"`
	IncorrectCounts int        `json:"incorrect_counts"`
	TimeBanned      *time.Time `json:"time_banned"`
	BanMinutes      int        `json:"ban_minutes"`
}

// A GuildRecord is the full per-guild game state. The json tags are the
// stable on-disk schema; renaming one is a schema change and needs a
// migration in the store.
type GuildRecord struct {
	CurrentCount    int        `json:"current_count"`
	HighestCount    int        `json:"highest_count"`
	PreviousUser    *string    `json:"previous_user"`
	PreviousMessage *time.Time `json:"previous_message"`
	CountingChannel *string    `json:"counting_channel"`

	// PreviousCounts holds the value reached at each past reset, append-only.
	PreviousCounts []int `json:"previous_counts"`

	BanningEnabled  bool    `json:"banning_enabled"`
	MinimumBan      int     `json:"minimum_ban_minutes"`
	MaximumBan      int     `json:"maximum_ban_minutes"`
	BanCurveBase    float64 `json:"ban_curve_base"`
	TrollMultiplier int     `json:"troll_multiplier"`
	PassDoublecount bool    `json:"pass_doublecount"`

	CorrectReactions   []string `json:"correct_reaction_emoji"`
	IncorrectReactions []string `json:"incorrect_reaction_emoji"`

	Users map[string]*UserRecord `json:"users"`
}

// DefaultGuildRecord returns the canonical fresh record for a guild on first
// contact. The store also uses it as the canonical schema when reconciling
// loaded records.
func DefaultGuildRecord() *GuildRecord {
	return &GuildRecord{
		PreviousCounts:     []int{},
		BanningEnabled:     true,
		MinimumBan:         1,
		MaximumBan:         120,
		BanCurveBase:       1.1,
		TrollMultiplier:    7,
		CorrectReactions:   []string{"🙂"},
		IncorrectReactions: []string{"💀"},
		Users:              map[string]*UserRecord{},
	}
}

// NewUserRecord returns a zeroed record for a user's first counting attempt.
func NewUserRecord() *UserRecord {
	return &UserRecord{}
}

// Clone returns a deep copy of the record. Mutations always operate on a
// clone which is only swapped in after a successful persist.
func (g *GuildRecord) Clone() *GuildRecord {
	c := *g
	if g.PreviousUser != nil {
		v := *g.PreviousUser
		c.PreviousUser = &v
	}
	if g.PreviousMessage != nil {
		v := *g.PreviousMessage
		c.PreviousMessage = &v
	}
	if g.CountingChannel != nil {
		v := *g.CountingChannel
		c.CountingChannel = &v
	}
	c.PreviousCounts = append([]int(nil), g.PreviousCounts...)
	c.CorrectReactions = append([]string(nil), g.CorrectReactions...)
	c.IncorrectReactions = append([]string(nil), g.IncorrectReactions...)
	c.Users = make(map[string]*UserRecord, len(g.Users))
	for id, u := range g.Users {
		uc := *u
		if u.TimeBanned != nil {
			t := *u.TimeBanned
			uc.TimeBanned = &t
		}
		c.Users[id] = &uc
	}
	return &c
}

// AverageCount is the mean of all past reset values, or 0 when the guild has
// never reset.
func (g *GuildRecord) AverageCount() float64 {
	if len(g.PreviousCounts) == 0 {
		return 0
	}
	sum := 0
	for _, c := range g.PreviousCounts {
		sum += c
	}
	return float64(sum) / float64(len(g.PreviousCounts))
}
