package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SpecialGreeting is a one-off follow-up message sent after a successful
// award when both the username and the local date match. Kept as data so the
// award path stays free of personal content.
type SpecialGreeting struct {
	Username string `json:"username"`
	Date     string `json:"date"` // 2006-01-02, local timezone
	Text     string `json:"text"`
}

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	OpenAIKey     string
	OpenAIModel   string

	ChatID   int64
	Location *time.Location

	AwardKeyword string
	BotName      string

	// Award window: local hour plus the first and last qualifying minute.
	WindowHour        int
	WindowStartMinute int
	WindowEndMinute   int

	AutoRegister    bool
	MorningReminder bool

	SpecialGreetings []SpecialGreeting
}

// WindowStart returns the window opening as HH:MM, for the cron reminder.
func (c Config) WindowStart() string {
	return fmt.Sprintf("%02d:%02d", c.WindowHour, c.WindowStartMinute)
}

// Load reads configuration from a .env file (if present) and environment
// variables. Missing required secrets are startup errors.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpenAIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4"),
		AwardKeyword:    strings.ToLower(getEnv("AWARD_KEYWORD", "awake")),
		BotName:         strings.ToLower(getEnv("BOT_NAME", "louie")),
		AutoRegister:    parseBool(os.Getenv("AUTO_REGISTER")),
		MorningReminder: parseBool(os.Getenv("MORNING_REMINDER")),
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CHAT_ID")), 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("CHAT_ID is required and must be an integer: %w", err)
	}
	cfg.ChatID = chatID

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Singapore"))
	if err != nil {
		return cfg, fmt.Errorf("load timezone: %w", err)
	}
	cfg.Location = loc

	hour, minute, err := parseClock(getEnv("WINDOW_START", "06:00"))
	if err != nil {
		return cfg, fmt.Errorf("WINDOW_START: %w", err)
	}
	cfg.WindowHour = hour
	cfg.WindowStartMinute = minute

	endMinute, err := strconv.Atoi(getEnv("WINDOW_END_MINUTE", "30"))
	if err != nil || endMinute < cfg.WindowStartMinute || endMinute > 59 {
		return cfg, fmt.Errorf("WINDOW_END_MINUTE must be a minute between %d and 59", cfg.WindowStartMinute)
	}
	cfg.WindowEndMinute = endMinute

	greetings, err := parseGreetings(os.Getenv("SPECIAL_GREETINGS"))
	if err != nil {
		return cfg, fmt.Errorf("SPECIAL_GREETINGS: %w", err)
	}
	cfg.SpecialGreetings = greetings

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func parseClock(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

func parseGreetings(raw string) ([]SpecialGreeting, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var greetings []SpecialGreeting
	if err := json.Unmarshal([]byte(raw), &greetings); err != nil {
		return nil, err
	}
	for _, g := range greetings {
		if _, err := time.Parse("2006-01-02", g.Date); err != nil {
			return nil, fmt.Errorf("greeting for %q: invalid date %q", g.Username, g.Date)
		}
	}
	return greetings, nil
}
