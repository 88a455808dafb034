package game

import (
	"fmt"
	"time"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// CatchUpLimit caps how much history a single catch-up scan may replay.
const CatchUpLimit = 100

// A CatchUpSummary describes what a catch-up scan did with the missed
// history, so the shell can post a single recap.
type CatchUpSummary struct {
	// Scanned is how many messages were fed through the validator before the
	// scan finished or stopped.
	Scanned int
	// Correct is how many replayed messages advanced the count.
	Correct int
	// IncorrectFound reports that the scan stopped at a reset; messages after
	// it were discarded.
	IncorrectFound bool
	// Truncated reports that the history hit the scan cap, so counts past the
	// window were never seen.
	Truncated bool
	// CurrentCount is the count after the scan.
	CurrentCount int
	// Replays carries the per-message effects produced during the replay,
	// paired with the message they belong to.
	Replays []Replay
}

// A Replay is the effects one historical message produced.
type Replay struct {
	Message models.Message
	Effects []Effect
}

// NeedsCatchUp reports whether a guild has a scan window open: a recorded
// last-processed message and a configured counting channel. The returned time
// is the exclusive lower bound for history to fetch.
func (g *Game) NeedsCatchUp(guildID string) (time.Time, string, bool) {
	rec, ok := g.store.Get(guildID)
	if !ok || rec.PreviousMessage == nil || rec.CountingChannel == nil {
		return time.Time{}, "", false
	}
	return *rec.PreviousMessage, *rec.CountingChannel, true
}

// CatchUp replays a bounded, oldest-first sequence of missed messages through
// the validator and derives a single summary. The scan stops at the first
// incorrect count: once the count resets, the remaining in-flight candidates
// are moot. Ordering must be strictly chronological because each message's
// validity depends on the mutations of the ones before it.
//
// On an incorrect count the scan window is stamped to now, so the next scan
// starts after the reset announcement instead of re-reading dead history. On
// cap truncation the window is left at the last processed message, so no
// counts are silently skipped, and the previous-user lock is lifted so anyone
// may continue.
func (g *Game) CatchUp(guildID string, history []models.Message) (CatchUpSummary, error) {
	sum := CatchUpSummary{}
	for _, msg := range history {
		res, err := g.HandleMessage(msg)
		if err != nil {
			return sum, fmt.Errorf("error replaying message: %s", err)
		}
		sum.Scanned++
		if len(res.Effects) > 0 {
			sum.Replays = append(sum.Replays, Replay{Message: msg, Effects: res.Effects})
		}
		if res.Outcome == OutcomeCorrect {
			sum.Correct++
		}
		if res.Outcome == OutcomeIncorrect {
			sum.IncorrectFound = true
			break
		}
	}
	sum.Truncated = !sum.IncorrectFound && sum.Scanned >= CatchUpLimit

	if sum.IncorrectFound || sum.Truncated {
		err := g.store.Mutate(guildID, func(rec *models.GuildRecord) error {
			if sum.IncorrectFound {
				now := g.now()
				rec.PreviousMessage = &now
			} else {
				rec.PreviousUser = nil
			}
			return nil
		})
		if err != nil {
			return sum, fmt.Errorf("error closing scan window: %s", err)
		}
	}

	if rec, ok := g.store.Get(guildID); ok {
		sum.CurrentCount = rec.CurrentCount
	}
	return sum, nil
}
