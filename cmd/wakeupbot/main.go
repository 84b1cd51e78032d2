package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wakeup-bot/internal/bot"
	"wakeup-bot/internal/config"
	"wakeup-bot/internal/repository"
	"wakeup-bot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	log.Println("[info] connected to the ledger database")

	userRepo := repository.NewUserRepository(db)

	awardSvc := service.NewAwardService(cfg)
	persona := service.NewPersonalityService(cfg.OpenAIKey, cfg.OpenAIModel)
	if !persona.Enabled() {
		log.Println("[warn] OPENAI_API_KEY not set, personality responder disabled")
	}

	wakeupBot, err := bot.New(cfg.TelegramToken, userRepo, awardSvc, persona, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	if cfg.MorningReminder {
		scheduler := service.NewSchedulerService(cfg.Location)
		if _, err := scheduler.ScheduleDaily(cfg.WindowStart(), func() {
			if err := wakeupBot.SendMorningReminder(); err != nil {
				log.Printf("morning reminder: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reminder: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Println("Wake-up bot started.")
	if err := wakeupBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
