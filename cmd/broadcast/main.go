package main

import (
	"context"
	"log"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Analyst/internal/config"
	"github.com/Alias1177/Analyst/internal/database"
	"github.com/Alias1177/Analyst/internal/signals"
)

// Pushes the latest trading signals to every subscribed chat. Intended to be
// run from cron after the trading pipeline refreshes the trades log.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set in environment")
	}
	if !cfg.HasDatabase() {
		log.Fatal("Database not configured, nowhere to read subscribers from")
	}

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	latest, err := signals.NewReader(cfg.TradesCSV).Latest(cfg.SignalHistoryLength)
	if err != nil {
		log.Fatalf("Failed to read signals: %v", err)
	}
	if len(latest) == 0 {
		log.Println("No signals to broadcast")
		return
	}
	message := signals.Format(latest)

	subscribers, err := db.ListSubscribers()
	if err != nil {
		log.Fatalf("Failed to list subscribers: %v", err)
	}
	log.Printf("Found %d subscribers in database", len(subscribers))

	// Telegram caps bulk sends around 30 messages per second.
	limiter := rate.NewLimiter(rate.Every(time.Second/25), 1)
	ctx := context.Background()

	successCount := 0
	errorCount := 0

	for i, sub := range subscribers {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatalf("Rate limiter interrupted: %v", err)
		}

		msg := tgbotapi.NewMessage(sub.ChatID, message)
		msg.ParseMode = tgbotapi.ModeHTML

		if _, err := bot.Send(msg); err != nil {
			log.Printf("Failed to send to user %d (chat_id: %d): %v", sub.UserID, sub.ChatID, err)
			errorCount++
		} else {
			log.Printf("✅ Sent to user %d (chat_id: %d) [%d/%d]", sub.UserID, sub.ChatID, i+1, len(subscribers))
			successCount++
		}
	}

	log.Printf("Broadcast finished: %d sent, %d failed", successCount, errorCount)
}
