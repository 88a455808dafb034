// Package game implements the counting game engine: the per-guild state
// machine that classifies each message, the penalty curve for incorrect
// counts, the ban ledger, and the catch-up scanner that replays missed
// history. It consumes already-translated events and emits effects; the
// discord shell owns the wire.
package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
	"github.com/Gitfoe/ChadCounting/internal/game/store"
)

// bonusReaction is added on top of the configured reactions when the new
// count contains "69".
const bonusReaction = "💦"

// Game is the state machine servicing one event at a time per guild. The
// store's per-guild locks make that explicit rather than relying on the
// caller's scheduling.
type Game struct {
	store     *store.Store
	l         *zap.SugaredLogger
	now       func() time.Time
	botUserID string
}

func New(st *store.Store, l *zap.SugaredLogger) *Game {
	return &Game{
		store: st,
		l:     l,
		now:   time.Now,
	}
}

// SetBotUser records the bot's own user id so its messages are never counted.
func (g *Game) SetBotUser(id string) {
	g.botUserID = id
}

// EnsureGuild creates the guild record on first contact.
func (g *Game) EnsureGuild(guildID string) error {
	return g.store.Ensure(guildID)
}

// HandleMessage runs the count validator over a single candidate message and
// returns the outcome plus the ordered effects for the shell to execute.
// Messages outside the counting channel, without a leading digit, or from
// bots are ignored without touching state.
func (g *Game) HandleMessage(msg models.Message) (Result, error) {
	res := Result{Outcome: OutcomeIgnored}
	if msg.AuthorBot || msg.AuthorID == g.botUserID {
		return res, nil
	}
	if msg.Content == "" || msg.Content[0] < '0' || msg.Content[0] > '9' {
		return res, nil
	}
	if err := g.store.Ensure(msg.GuildID); err != nil {
		return res, fmt.Errorf("error ensuring guild record: %s", err)
	}

	err := g.store.Mutate(msg.GuildID, func(rec *models.GuildRecord) error {
		if rec.CountingChannel == nil || *rec.CountingChannel != msg.ChannelID {
			return store.ErrNoChange
		}

		dirty := false
		user := rec.Users[msg.AuthorID]
		if user == nil {
			user = models.NewUserRecord()
			rec.Users[msg.AuthorID] = user
			dirty = true
		}

		keep := func() error {
			if dirty {
				return nil
			}
			return store.ErrNoChange
		}

		if remaining := RemainingBan(user, g.now()); rec.BanningEnabled && remaining >= 1 {
			res = Result{
				Outcome: OutcomeRejectedBanned,
				Effects: []Effect{reply("You can't count now!", fmt.Sprintf(
					"<@%s>, you are still banned from counting for %s, you beta. The current count stays on **%d**. Other users can continue counting.",
					msg.AuthorID, MinutesString(remaining, false), rec.CurrentCount,
				))},
			}
			return keep()
		}

		if rec.PreviousUser != nil && *rec.PreviousUser == msg.AuthorID {
			if rec.PassDoublecount {
				res = Result{Outcome: OutcomeIgnored}
				return keep()
			}
			res = g.applyReset(rec, msg, user, true)
			return nil
		}

		n, _ := leadingNumber(msg.Content)
		if n != rec.CurrentCount+1 {
			res = g.applyReset(rec, msg, user, false)
			return nil
		}

		rec.CurrentCount++
		author := msg.AuthorID
		rec.PreviousUser = &author
		created := msg.CreatedAt
		rec.PreviousMessage = &created
		user.CorrectCounts++
		if rec.CurrentCount > rec.HighestCount {
			rec.HighestCount = rec.CurrentCount
		}

		effects := make([]Effect, 0, len(rec.CorrectReactions)+1)
		for _, e := range rec.CorrectReactions {
			effects = append(effects, reaction(e))
		}
		if strings.Contains(strconv.Itoa(rec.CurrentCount), "69") {
			effects = append(effects, reaction(bonusReaction))
		}
		res = Result{Outcome: OutcomeCorrect, Effects: effects}
		return nil
	})
	if err != nil {
		return Result{Outcome: OutcomeIgnored}, fmt.Errorf("error handling count: %s", err)
	}
	return res, nil
}

// applyReset is the incorrect-attempt path: it archives the reached count,
// resets the guild, and runs the penalty engine against the raw number the
// offender sent so implausible jumps hit the troll override.
func (g *Game) applyReset(rec *models.GuildRecord, msg models.Message, user *models.UserRecord, doubleCount bool) Result {
	before := rec.CurrentCount
	rec.PreviousCounts = append(rec.PreviousCounts, before)
	rec.CurrentCount = 0
	rec.PreviousUser = nil
	rec.PreviousMessage = nil
	user.IncorrectCounts++

	suffix := fmt.Sprintf(
		"Only gigachads should be in charge of counting. Please start again from 1. The high score is %d.",
		rec.HighestCount,
	)
	body := fmt.Sprintf("What a beta move by <@%s>. ", msg.AuthorID)
	if doubleCount {
		body += "A user cannot count twice in a row. " + suffix
	} else {
		body += fmt.Sprintf("That's not the right number, it should have been %d. %s", before+1, suffix)
	}

	effects := []Effect{}
	if rec.BanningEnabled {
		raw, ok := leadingNumber(msg.Content)
		if !ok {
			raw = before
		}
		minutes := Penalize(before, rec.AverageCount(), rec.MinimumBan, rec.MaximumBan, rec.BanCurveBase, rec.TrollMultiplier, raw)
		if minutes > 0 {
			recordBan(user, g.now(), minutes)
			body += fmt.Sprintf(" Moreover, because you messed up, you are now banned for %s.", MinutesString(minutes, false))
			if minutes > rec.MaximumBan {
				body += fmt.Sprintf(" ⚠️ **Don't be a troll, <@%s>.**", msg.AuthorID)
			}
			effects = append(effects, banNotice(msg.AuthorID, minutes))
		}
	}

	effects = append(effects, reply("Whoops...!", body))
	for _, e := range rec.IncorrectReactions {
		effects = append(effects, reaction(e))
	}
	return Result{Outcome: OutcomeIncorrect, Effects: effects}
}

// HandleMessageDelete punishes deleting the current count: if the deleted
// message is the last processed one, the deleter gets the full troll penalty
// and the previous-user lock is lifted so anyone can continue. The returned
// effects are empty when the deletion was unrelated to the count.
func (g *Game) HandleMessageDelete(msg models.Message) ([]Effect, error) {
	var effects []Effect
	if msg.AuthorBot || msg.AuthorID == g.botUserID {
		return nil, nil
	}
	err := g.store.Mutate(msg.GuildID, func(rec *models.GuildRecord) error {
		if rec.PreviousMessage == nil || !rec.PreviousMessage.Equal(msg.CreatedAt) {
			return store.ErrNoChange
		}
		rec.PreviousUser = nil

		// Without a cached copy of the message the deleter is unknown.
		mention := "someone"
		title := "Someone deleted a count..."
		if msg.AuthorID != "" {
			mention = fmt.Sprintf("<@%s>", msg.AuthorID)
			title = fmt.Sprintf("%s deleted a count...", mention)
		}

		body := fmt.Sprintf(
			"It seems that %s deleted their last counting message! They likely wanted to purposefully mess up the count. Shame.",
			mention,
		)
		if rec.BanningEnabled {
			minutes := rec.MaximumBan * rec.TrollMultiplier
			if user := rec.Users[msg.AuthorID]; msg.AuthorID != "" && user != nil {
				recordBan(user, g.now(), minutes)
				body += fmt.Sprintf(" They are now banned for %s and can't continue counting.", MinutesString(minutes, false))
				effects = append(effects, banNotice(msg.AuthorID, minutes))
			} else {
				body += " However, as they have never counted before, they won't get banned. Very lucky..."
			}
		}
		body += fmt.Sprintf(" The current count is **%d**. Continue counting from there!", rec.CurrentCount)
		effects = append(effects, reply(title, body))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error handling deleted count: %s", err)
	}
	return effects, nil
}

// leadingNumber parses the run of decimal digits a message starts with.
// Values that overflow saturate instead of failing; an absurd number should
// reach the troll override, not crash the validator.
func leadingNumber(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return math.MaxInt, true
	}
	return n, true
}

// MinutesString renders a duration in minutes as "2 hours and 1 minute", or
// "2h 1m" in short form.
func MinutesString(minutes int, short bool) string {
	hours := minutes / 60
	mins := minutes % 60
	hoursText := " hours"
	minutesText := " minutes"
	andText := " and "
	if short {
		hoursText, minutesText, andText = "h", "m", " "
	} else {
		if hours == 1 {
			hoursText = " hour"
		}
		if mins == 1 {
			minutesText = " minute"
		}
	}
	switch {
	case hours >= 1 && mins >= 1:
		return fmt.Sprintf("%d%s%s%d%s", hours, hoursText, andText, mins, minutesText)
	case hours >= 1:
		return fmt.Sprintf("%d%s", hours, hoursText)
	default:
		return fmt.Sprintf("%d%s", mins, minutesText)
	}
}
