package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Analyst/internal/analyze"
	"github.com/Alias1177/Analyst/internal/api/openrouter"
	"github.com/Alias1177/Analyst/internal/config"
	"github.com/Alias1177/Analyst/internal/database"
	"github.com/Alias1177/Analyst/internal/dataset"
	"github.com/Alias1177/Analyst/internal/signals"
)

const welcomeText = "🌸 <b>Crypto Analyst Bot</b>\n\n" +
	"I am an educational crypto market assistant. I analyze technical " +
	"indicators and news, but <b>I do not give investment advice</b>.\n\n" +
	"<b>Commands:</b>\n" +
	"  /analyze &lt;TICKER&gt; — analyze a coin (e.g. <code>/analyze BTC</code>)\n" +
	"  /signal — latest trading signals from the system\n" +
	"  /tickers — list of available coins\n" +
	"  /subscribe — receive signal broadcasts\n" +
	"  /help — help\n\n" +
	"💡 Just type a ticker (e.g. <code>ETH</code>) to get an analysis!"

const helpText = "📖 <b>Help</b>\n\n" +
	"<b>/analyze TICKER</b>\n" +
	"Get an LLM analysis of a coin: technical signals, market sentiment, " +
	"scenarios and risks.\n\n" +
	"<b>/signal</b>\n" +
	"The bot's latest buy/sell signals from the backtest.\n\n" +
	"<b>/tickers</b>\n" +
	"Show all coins available in the dataset.\n\n" +
	"<b>/subscribe</b> / <b>/unsubscribe</b>\n" +
	"Manage signal broadcast delivery to this chat.\n\n" +
	"⚠️ <i>All analysis is for educational purposes only. " +
	"It is not investment advice.</i>"

// Global collaborators wired in main
var (
	cfg           *config.Config
	db            *database.DB
	analyzer      *analyze.Analyzer
	featureReader *dataset.Reader
	signalReader  *signals.Reader
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	// Subscriber storage is optional; the analysis pipeline runs without it.
	if cfg.HasDatabase() {
		db, err = database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize database")
		}
	} else {
		logger.Warn().Msg("Database not configured, signal subscriptions disabled")
	}

	featureReader = dataset.NewReader(cfg.FeaturesCSV)
	signalReader = signals.NewReader(cfg.TradesCSV)
	analyzer = analyze.New(featureReader, openrouter.NewClient(openrouter.Options{
		APIKey:          cfg.OpenRouterAPIKey,
		Model:           cfg.LLMModel,
		APIURL:          cfg.LLMAPIURL,
		Temperature:     cfg.LLMTemperature,
		MaxTokens:       cfg.LLMMaxTokens,
		RequestTimeout:  time.Duration(cfg.RequestTimeout) * time.Second,
		MaxRetryElapsed: time.Duration(cfg.LLMRetryMaxElapsed) * time.Second,
	}), cfg.AnalysisTimeframe)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	logger.Info().
		Str("username", bot.Self.UserName).
		Bool("llm_configured", cfg.OpenRouterAPIKey != "").
		Str("dataset", cfg.FeaturesCSV).
		Msg("Authorized on Telegram")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := bot.GetUpdatesChan(updateConfig)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		// Each update runs on its own goroutine so one user's LLM wait
		// never stalls another chat.
		go handleMessage(bot, update.Message, &logger)
	}
}

// handleMessage routes one incoming text message
func handleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message, logger *zerolog.Logger) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		sendHTML(bot, chatID, welcomeText, logger)
	case "help":
		sendHTML(bot, chatID, helpText, logger)
	case "analyze":
		ticker := strings.TrimSpace(message.CommandArguments())
		if ticker == "" {
			sendHTML(bot, chatID, "❓ Specify a ticker, for example: <code>/analyze BTC</code>", logger)
			return
		}
		handleAnalyze(bot, chatID, ticker, logger)
	case "signal":
		handleSignal(bot, chatID, logger)
	case "tickers":
		handleTickers(bot, chatID, logger)
	case "subscribe":
		handleSubscribe(bot, message, logger)
	case "unsubscribe":
		handleUnsubscribe(bot, message, logger)
	case "":
		handlePlainText(bot, message, logger)
	default:
		sendHTML(bot, chatID, "🤔 Unknown command. Use /help for the command list.", logger)
	}
}

// handlePlainText treats a short alphabetic message as a ticker, anything
// else gets a usage hint.
func handlePlainText(bot *tgbotapi.BotAPI, message *tgbotapi.Message, logger *zerolog.Logger) {
	text := strings.ToUpper(strings.TrimSpace(message.Text))
	if isTicker(text) {
		handleAnalyze(bot, message.Chat.ID, text, logger)
		return
	}

	sendHTML(bot, message.Chat.ID,
		"🤔 I didn't understand that.\n\n"+
			"💡 Type a coin ticker (for example <code>BTC</code>) "+
			"or use /help for the command list.", logger)
}

// handleAnalyze runs the analysis pipeline and edits the wait message with
// the outcome.
func handleAnalyze(bot *tgbotapi.BotAPI, chatID int64, ticker string, logger *zerolog.Logger) {
	ticker = strings.ToUpper(ticker)

	waitMsg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔍 Analyzing <b>%s</b>... ⏳", ticker))
	waitMsg.ParseMode = tgbotapi.ModeHTML
	sentMsg, err := bot.Send(waitMsg)
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send wait message")
		return
	}

	text, err := analyzer.Analyze(context.Background(), ticker)
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		text = fmt.Sprintf("❌ Coin <b>%s</b> not found in the dataset.\nUse /tickers to see the available coins.", ticker)
	case errors.Is(err, dataset.ErrDataUnavailable):
		text = "⚠️ Market data is temporarily unavailable. Please try again later."
	case err != nil:
		logger.Error().Err(err).Str("ticker", ticker).Msg("Analysis failed")
		text = "⚠️ Something went wrong. Please try again later."
	}

	editMsg := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, text)
	editMsg.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(editMsg); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit analysis message")
	}
}

// handleSignal shows the latest buy/sell signals from the trades log.
func handleSignal(bot *tgbotapi.BotAPI, chatID int64, logger *zerolog.Logger) {
	latest, err := signalReader.Latest(cfg.SignalHistoryLength)
	if err != nil || len(latest) == 0 {
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read signals")
		}
		sendHTML(bot, chatID, "📭 No signals yet. Run the trading pipeline to generate some.", logger)
		return
	}

	sendHTML(bot, chatID, signals.Format(latest), logger)
}

// handleTickers lists the coins available in the dataset.
func handleTickers(bot *tgbotapi.BotAPI, chatID int64, logger *zerolog.Logger) {
	tickers, err := featureReader.Tickers()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list tickers")
		sendHTML(bot, chatID, "⚠️ Market data is temporarily unavailable. Please try again later.", logger)
		return
	}

	spans := make([]string, len(tickers))
	for i, t := range tickers {
		spans[i] = fmt.Sprintf("<code>%s</code>", t)
	}
	text := fmt.Sprintf("💰 <b>Available coins:</b>\n\n%s\n\nTotal: %d coins\nUse: <code>/analyze TICKER</code>",
		strings.Join(spans, " | "), len(tickers))
	sendHTML(bot, chatID, text, logger)
}

func handleSubscribe(bot *tgbotapi.BotAPI, message *tgbotapi.Message, logger *zerolog.Logger) {
	if db == nil {
		sendHTML(bot, message.Chat.ID, "📭 Signal broadcasts are not enabled on this instance.", logger)
		return
	}

	if err := db.Subscribe(message.From.ID, message.Chat.ID); err != nil {
		logger.Error().Err(err).Int64("user_id", message.From.ID).Msg("Failed to subscribe user")
		sendHTML(bot, message.Chat.ID, "⚠️ Something went wrong. Please try again later.", logger)
		return
	}
	sendHTML(bot, message.Chat.ID, "🔔 Subscribed! You will receive signal broadcasts in this chat.", logger)
}

func handleUnsubscribe(bot *tgbotapi.BotAPI, message *tgbotapi.Message, logger *zerolog.Logger) {
	if db == nil {
		sendHTML(bot, message.Chat.ID, "📭 Signal broadcasts are not enabled on this instance.", logger)
		return
	}

	if err := db.Unsubscribe(message.From.ID); err != nil {
		logger.Error().Err(err).Int64("user_id", message.From.ID).Msg("Failed to unsubscribe user")
		sendHTML(bot, message.Chat.ID, "⚠️ Something went wrong. Please try again later.", logger)
		return
	}
	sendHTML(bot, message.Chat.ID, "🔕 Unsubscribed. You will no longer receive broadcasts.", logger)
}

func sendHTML(bot *tgbotapi.BotAPI, chatID int64, text string, logger *zerolog.Logger) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(msg); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// isTicker reports whether text looks like a 2-6 letter ticker symbol.
func isTicker(text string) bool {
	if len(text) < 2 || len(text) > 6 {
		return false
	}
	for _, r := range text {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
