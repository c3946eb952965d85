package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly into constructors.
type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY" envDefault:"-"`

	LLMModel            string  `env:"LLM_MODEL" envDefault:"google/gemini-2.5-flash-lite"`
	LLMAPIURL           string  `env:"LLM_API_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	LLMTemperature      float64 `env:"LLM_TEMPERATURE" envDefault:"0.5"`
	LLMMaxTokens        int     `env:"LLM_MAX_TOKENS" envDefault:"600"`
	LLMRetryMaxElapsed  int     `env:"LLM_RETRY_MAX_ELAPSED" envDefault:"0"` // seconds, 0 = single attempt
	RequestTimeout      int     `env:"REQUEST_TIMEOUT" envDefault:"30"`      // seconds
	AnalysisTimeframe   string  `env:"ANALYSIS_TIMEFRAME" envDefault:"1d"`
	FeaturesCSV         string  `env:"FEATURES_CSV" envDefault:"crypto_features_3months.csv"`
	TradesCSV           string  `env:"TRADES_CSV" envDefault:"trades.csv"`
	SignalHistoryLength int     `env:"SIGNAL_HISTORY_LENGTH" envDefault:"5"`
	LogLevel            string  `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.LLMModel = getEnvWithDefault("LLM_MODEL", "google/gemini-2.5-flash-lite")
	cfg.LLMAPIURL = getEnvWithDefault("LLM_API_URL", "https://openrouter.ai/api/v1/chat/completions")
	cfg.LLMTemperature = getEnvFloatWithDefault("LLM_TEMPERATURE", 0.5)
	cfg.LLMMaxTokens = getEnvIntWithDefault("LLM_MAX_TOKENS", 600)
	cfg.LLMRetryMaxElapsed = getEnvIntWithDefault("LLM_RETRY_MAX_ELAPSED", 0)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.AnalysisTimeframe = getEnvWithDefault("ANALYSIS_TIMEFRAME", "1d")
	cfg.FeaturesCSV = getEnvWithDefault("FEATURES_CSV", "crypto_features_3months.csv")
	cfg.TradesCSV = getEnvWithDefault("TRADES_CSV", "trades.csv")
	cfg.SignalHistoryLength = getEnvIntWithDefault("SIGNAL_HISTORY_LENGTH", 5)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	return &cfg, nil
}

// HasDatabase reports whether subscriber storage is configured. The bot runs
// without it; only /subscribe and broadcasts need a database.
func (c *Config) HasDatabase() bool {
	return c.DBHost != "" && c.DBName != ""
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
