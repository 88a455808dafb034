package game

// Outcome classifies what the validator decided about a candidate message.
type Outcome int

const (
	// OutcomeIgnored means the message was not a counting attempt, or the
	// double-count pass setting swallowed it.
	OutcomeIgnored Outcome = iota
	// OutcomeCorrect means the count advanced.
	OutcomeCorrect
	// OutcomeIncorrect means the count reset and the author may be banned.
	OutcomeIncorrect
	// OutcomeRejectedBanned means a banned user tried to count; nothing
	// changed.
	OutcomeRejectedBanned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeRejectedBanned:
		return "rejected_banned"
	default:
		return "ignored"
	}
}

// EffectType discriminates the user-facing effects the core asks the shell
// to execute. The core never talks to the chat platform itself.
type EffectType int

const (
	// EffectReply is an embed reply to the triggering message (or to the
	// counting channel when the trigger no longer exists).
	EffectReply EffectType = iota
	// EffectReaction adds an emoji reaction to the triggering message.
	EffectReaction
	// EffectBanNotice informs the shell that a ban was recorded, for any
	// platform-side bookkeeping it wants to do.
	EffectBanNotice
)

// An Effect is one user-facing action for the shell to perform, in order.
type Effect struct {
	Type    EffectType
	Title   string
	Body    string
	Emoji   string
	UserID  string
	Minutes int
}

// A Result is what the validator hands back for a single message: the
// classification plus the ordered effects to run.
type Result struct {
	Outcome Outcome
	Effects []Effect
}

func reply(title, body string) Effect {
	return Effect{Type: EffectReply, Title: title, Body: body}
}

func reaction(emoji string) Effect {
	return Effect{Type: EffectReaction, Emoji: emoji}
}

func banNotice(userID string, minutes int) Effect {
	return Effect{Type: EffectBanNotice, UserID: userID, Minutes: minutes}
}
