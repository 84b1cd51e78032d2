package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"wakeup-bot/internal/config"
	"wakeup-bot/internal/repository"
	"wakeup-bot/internal/service"
)

// Bot aggregates the Telegram API with the ledger and services.
type Bot struct {
	api      *tgbotapi.BotAPI
	userRepo *repository.UserRepository
	awardSvc *service.AwardService
	persona  *service.PersonalityService
	config   *config.Config
	now      func() time.Time
}

func New(token string, userRepo *repository.UserRepository, awardSvc *service.AwardService, persona *service.PersonalityService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:      api,
		userRepo: userRepo,
		awardSvc: awardSvc,
		persona:  persona,
		config:   cfg,
		now:      time.Now,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Text == "" {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	return b.handleWakeUp(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "createuser":
		return b.handleCreateUser(ctx, msg)
	case "leaderboard":
		return b.handleLeaderboard(ctx, msg)
	case "whopays":
		return b.handleWhoPays(ctx, msg)
	case "forfeit":
		return b.handleForfeit(ctx, msg)
	case "timenow":
		return b.handleTimeNow(msg)
	case "getchatid":
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Chat ID: %d", msg.Chat.ID))
	case "testdb":
		return b.handleTestDB(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	default:
		return nil
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := fmt.Sprintf(
		"Woof! 🐾 Welcome! Send your wake-up message containing %q between %s to earn points. 🐶\nUse /help to check out all available commands. 🦴",
		b.config.AwardKeyword, b.windowLabel(),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "🐶 Woof! Here are the commands you can use: 🐾\n\n" +
		"/start - Start the bot\n" +
		"/createuser - Register as a new user\n" +
		"/leaderboard - Show the leaderboard\n" +
		"/whopays - Determine who has to pay based on points\n" +
		"/forfeit - Check if a trip is owed based on points difference\n" +
		"/timenow - Check the current local time\n" +
		"/help - Show this help message\n"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCreateUser(ctx context.Context, msg *tgbotapi.Message) error {
	username := displayName(msg.From)

	user, err := b.userRepo.FindByTelegramID(ctx, msg.From.ID)
	switch {
	case err == nil:
		if err := b.userRepo.RefreshUsername(ctx, user, username); err != nil {
			log.Printf("refresh username for %d: %v", msg.From.ID, err)
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("User %s already exists. 🐕", username))
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := b.userRepo.Create(ctx, msg.From.ID, username); err != nil {
			log.Printf("create user %d: %v", msg.From.ID, err)
			return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
		}
		log.Printf("[info] created user %s (id %d) with 0 points", username, msg.From.ID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Woof! 🐶 User %s created with 0 points. Let's start fetching points! 🦴", username))
	default:
		log.Printf("load user %d: %v", msg.From.ID, err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
	}
}

// handleWakeUp runs every non-command message through the award decision
// engine and applies its verdict.
func (b *Bot) handleWakeUp(ctx context.Context, msg *tgbotapi.Message) error {
	ev := service.MessageEvent{
		ChatID:   msg.Chat.ID,
		UserID:   msg.From.ID,
		Username: displayName(msg.From),
		Text:     msg.Text,
	}
	localNow := b.now().In(b.config.Location)

	// A missing record is a normal branch: rec stays nil and the engine
	// reports OutcomeUnregistered.
	rec, err := b.userRepo.FindByTelegramID(ctx, ev.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("load user %d: %v", ev.UserID, err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
	}

	decision := b.awardSvc.Evaluate(ev, rec, localNow)

	if decision.Outcome == service.OutcomeUnregistered && b.config.AutoRegister {
		rec, err = b.userRepo.Create(ctx, ev.UserID, ev.Username)
		if err != nil {
			log.Printf("auto-register %d: %v", ev.UserID, err)
			return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
		}
		log.Printf("[info] auto-registered user %s (id %d)", ev.Username, ev.UserID)
		decision = b.awardSvc.Evaluate(ev, rec, localNow)
	}

	switch decision.Outcome {
	case service.OutcomeWrongChat:
		log.Printf("[warn] message from unexpected chat %d", ev.ChatID)
		return nil
	case service.OutcomeDelegate:
		return b.handlePersonaMessage(ctx, msg)
	case service.OutcomeNoKeyword:
		return nil
	case service.OutcomeUnregistered:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("User %s does not exist. Please register using /createuser. 🐶", ev.Username))
	case service.OutcomeOutOfWindow:
		log.Printf("[info] message from %s (%d) is outside the award window", ev.Username, ev.UserID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Too late or too early! Try again between %s. 🕰️", b.windowLabel()))
	case service.OutcomeAlreadyClaimed:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("You have already earned a point today, %s! 🐕", ev.Username))
	case service.OutcomeAwarded:
		return b.applyAward(ctx, msg, ev, decision, localNow)
	default:
		return nil
	}
}

// applyAward performs the ledger mutation. A failed write is reported as a
// failure, never as a success; a write that changed no rows means another
// message won the race and today's point is already claimed.
func (b *Bot) applyAward(ctx context.Context, msg *tgbotapi.Message, ev service.MessageEvent, decision service.Decision, localNow time.Time) error {
	user, changed, err := b.userRepo.Award(ctx, ev.UserID, ev.Username, decision.AwardDate)
	if err != nil {
		log.Printf("award point to %d: %v", ev.UserID, err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't save your point (database error). 🐶 It does not count yet, please try again.")
	}
	if !changed {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("You have already earned a point today, %s! 🐕", ev.Username))
	}

	log.Printf("[info] user %s (%d) earned a point, total %d", ev.Username, ev.UserID, user.Points)
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("Good job, %s! You earned a point! 🐾 Your current points: %d 🏆", ev.Username, user.Points)); err != nil {
		return err
	}

	return b.sendSpecialGreetings(msg.Chat.ID, ev.Username, localNow)
}

// sendSpecialGreetings delivers configured one-off follow-ups whose username
// and local date match today's award.
func (b *Bot) sendSpecialGreetings(chatID int64, username string, localNow time.Time) error {
	today := localNow.Format("2006-01-02")
	for _, g := range b.config.SpecialGreetings {
		if g.Username == username && g.Date == today {
			if err := b.sendText(chatID, g.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bot) handlePersonaMessage(ctx context.Context, msg *tgbotapi.Message) error {
	log.Printf("[info] delegating message from %s to the personality responder", displayName(msg.From))

	reply, err := b.persona.Respond(ctx, msg.Text)
	if err != nil {
		log.Printf("personality responder: %v", err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't think of a reply right now. 🐶 Please try again later.")
	}
	return b.sendText(msg.Chat.ID, reply)
}

func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("load leaderboard: %v", err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
	}

	var builder strings.Builder
	builder.WriteString("🏆 Leaderboard 🏆\n")
	for _, user := range service.RankByPoints(users) {
		builder.WriteString(fmt.Sprintf("%s: %d points 🐾\n", user.Username, user.Points))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleWhoPays(ctx context.Context, msg *tgbotapi.Message) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("load users: %v", err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
	}

	switch service.WhoPays(users) {
	case service.PayNotEnoughPlayers:
		return b.sendText(msg.Chat.ID, "Not enough players to determine who pays. 🐶")
	case service.PayFirst:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Woof! 🐶 %s has fewer points (%d) and has to pay! 🐾", users[0].Username, users[0].Points))
	case service.PaySecond:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Woof! 🐶 %s has fewer points (%d) and has to pay! 🐾", users[1].Username, users[1].Points))
	default:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("It's a tie! Both %s and %s have the same points (%d). You both split the bill! 🐕", users[0].Username, users[1].Username, users[0].Points))
	}
}

func (b *Bot) handleForfeit(ctx context.Context, msg *tgbotapi.Message) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("load users: %v", err)
		return b.sendText(msg.Chat.ID, "Woof... I couldn't reach my bone archive (database error). 🐶 Please try again.")
	}

	switch service.Forfeit(users) {
	case service.ForfeitNotEnoughPlayers:
		return b.sendText(msg.Chat.ID, "Not enough players to determine forfeit status. 🐶")
	case service.ForfeitFirst:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Woof! 🐶 %s owes a trip to the next vacation place! 🏝️🐾", users[0].Username))
	case service.ForfeitSecond:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Woof! 🐶 %s owes a trip to the next vacation place! 🏝️🐾", users[1].Username))
	default:
		return b.sendText(msg.Chat.ID, "Keep up the good work! Good sleep leads to good productivity. 🐾")
	}
}

func (b *Bot) handleTimeNow(msg *tgbotapi.Message) error {
	localNow := b.now().In(b.config.Location)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("The current local time is: %s 🕰️", localNow.Format("2006-01-02 15:04:05 MST-0700")))
}

func (b *Bot) handleTestDB(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.userRepo.Ping(ctx); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Database connection error: %s 🐕", err))
	}
	return b.sendText(msg.Chat.ID, "Database connection is working! 🐾")
}

// SendMorningReminder posts the window-open message to the authorized chat.
// Driven by the cron scheduler when MORNING_REMINDER is enabled.
func (b *Bot) SendMorningReminder() error {
	text := fmt.Sprintf("Rise and shine! 🌅 The wake-up window is open! Send a message containing %q before %s to earn today's point. 🐾", b.config.AwardKeyword, b.windowClose())
	return b.sendText(b.config.ChatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// windowLabel renders the award window as "6:00 AM and 6:30 AM".
func (b *Bot) windowLabel() string {
	open := clockLabel(b.config.WindowHour, b.config.WindowStartMinute)
	return open + " and " + b.windowClose()
}

func (b *Bot) windowClose() string {
	return clockLabel(b.config.WindowHour, b.config.WindowEndMinute)
}

func clockLabel(hour, minute int) string {
	suffix := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

func displayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}
