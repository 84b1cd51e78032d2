package service

import (
	"strings"
	"time"

	"wakeup-bot/internal/config"
	"wakeup-bot/internal/model"
)

// MessageEvent is one inbound free-text chat message.
type MessageEvent struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

// Outcome classifies what a message means for the daily point.
type Outcome int

const (
	// OutcomeWrongChat: the message came from a chat other than the
	// configured one and is ignored entirely.
	OutcomeWrongChat Outcome = iota
	// OutcomeDelegate: the message names the bot and goes to the
	// personality responder instead of the award path.
	OutcomeDelegate
	// OutcomeNoKeyword: no award keyword, nothing to do.
	OutcomeNoKeyword
	// OutcomeUnregistered: the sender has no ledger entry.
	OutcomeUnregistered
	// OutcomeOutOfWindow: keyword matched but outside the morning window.
	OutcomeOutOfWindow
	// OutcomeAlreadyClaimed: today's point was already awarded.
	OutcomeAlreadyClaimed
	// OutcomeAwarded: the sender earns a point.
	OutcomeAwarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWrongChat:
		return "wrong-chat"
	case OutcomeDelegate:
		return "delegate"
	case OutcomeNoKeyword:
		return "no-keyword"
	case OutcomeUnregistered:
		return "unregistered"
	case OutcomeOutOfWindow:
		return "out-of-window"
	case OutcomeAlreadyClaimed:
		return "already-claimed"
	case OutcomeAwarded:
		return "awarded"
	default:
		return "unknown"
	}
}

// Decision is the engine's verdict for one message. On OutcomeAwarded,
// NewPoints and AwardDate describe the ledger mutation to apply.
type Decision struct {
	Outcome   Outcome
	NewPoints int
	AwardDate time.Time
}

// AwardService decides whether a message earns the daily point. Evaluate is
// pure: it performs no I/O and mutates nothing, so the checks stay testable
// and the ledger write can be applied as one atomic update by the caller.
type AwardService struct {
	chatID       int64
	awardKeyword string
	botName      string
	windowHour   int
	startMinute  int
	endMinute    int
}

func NewAwardService(cfg config.Config) *AwardService {
	return &AwardService{
		chatID:       cfg.ChatID,
		awardKeyword: cfg.AwardKeyword,
		botName:      cfg.BotName,
		windowHour:   cfg.WindowHour,
		startMinute:  cfg.WindowStartMinute,
		endMinute:    cfg.WindowEndMinute,
	}
}

// Evaluate runs the ordered checks over one message. rec is the sender's
// ledger entry, nil when none exists. localNow must already be in the bot's
// timezone. The order matters: a message naming the bot always delegates,
// even when it also contains the award keyword, and the window check runs
// before the claimed check so an out-of-window repeat still gets the
// too-early/too-late reply.
func (s *AwardService) Evaluate(ev MessageEvent, rec *model.User, localNow time.Time) Decision {
	if ev.ChatID != s.chatID {
		return Decision{Outcome: OutcomeWrongChat}
	}

	text := strings.ToLower(ev.Text)
	if strings.Contains(text, s.botName) {
		return Decision{Outcome: OutcomeDelegate}
	}
	if !strings.Contains(text, s.awardKeyword) {
		return Decision{Outcome: OutcomeNoKeyword}
	}

	if rec == nil {
		return Decision{Outcome: OutcomeUnregistered}
	}

	if !s.inWindow(localNow) {
		return Decision{Outcome: OutcomeOutOfWindow}
	}

	if rec.WokeUpOn(localNow) {
		return Decision{Outcome: OutcomeAlreadyClaimed}
	}

	return Decision{
		Outcome:   OutcomeAwarded,
		NewPoints: rec.Points + 1,
		AwardDate: localNow,
	}
}

func (s *AwardService) inWindow(localNow time.Time) bool {
	if localNow.Hour() != s.windowHour {
		return false
	}
	minute := localNow.Minute()
	return minute >= s.startMinute && minute <= s.endMinute
}
