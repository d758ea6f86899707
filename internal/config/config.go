package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/internal/database"
	"github.com/Alias1177/SignalTrader/internal/trading/risk"
)

// Trading modes
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string        `validate:"oneof=trace debug info warn error"`
	TradingMode    string        `validate:"oneof=paper live"`
	RequestTimeout time.Duration `validate:"gt=0"`
	GatewayTimeout time.Duration `validate:"gt=0"`
	RequestsPerSec int           `validate:"gte=0"` // 0 keeps each gateway's own limit

	AlpacaAPIKey    string
	AlpacaSecretKey string
	AlpacaBaseURL   string `validate:"url"`
	AlpacaDataURL   string `validate:"url"`

	GeminiAPIKey    string
	GeminiSecretKey string
	GeminiSandbox   bool

	Database database.ConnectionParams

	TelegramBotToken string
	TelegramChatID   int64

	MaxPositionSize  float64 `validate:"gt=0,lte=100"`
	MaxDailyLoss     float64 `validate:"gt=0,lte=100"`
	MaxOpenPositions int     `validate:"gt=0"`
	RiskPerTrade     float64 `validate:"gt=0,lte=100"`

	// signal risk profile overrides; zero means unset
	MinConfidence   float64 `validate:"gte=0,lte=1"`
	StopLossPct     float64 `validate:"gte=0,lte=100"`
	TakeProfitRatio float64 `validate:"gte=0"`

	StrategyFile string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	limits := risk.DefaultLimits()
	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.TradingMode = getEnvWithDefault("TRADING_MODE", ModePaper)
	cfg.RequestTimeout = time.Duration(getEnvIntWithDefault("REQUEST_TIMEOUT", 30)) * time.Second
	cfg.GatewayTimeout = time.Duration(getEnvIntWithDefault("GATEWAY_TIMEOUT", 30)) * time.Second
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 0)

	cfg.AlpacaAPIKey = os.Getenv("ALPACA_API_KEY")
	cfg.AlpacaSecretKey = os.Getenv("ALPACA_SECRET_KEY")
	cfg.AlpacaBaseURL = getEnvWithDefault("ALPACA_BASE_URL", "https://paper-api.alpaca.markets")
	cfg.AlpacaDataURL = getEnvWithDefault("ALPACA_DATA_URL", "https://data.alpaca.markets")

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiSecretKey = os.Getenv("GEMINI_SECRET_KEY")
	cfg.GeminiSandbox = getEnvBoolWithDefault("GEMINI_SANDBOX", true)

	cfg.Database = database.ConnectionParams{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.MaxPositionSize = getEnvFloatWithDefault("MAX_POSITION_SIZE", limits.MaxPositionSize)
	cfg.MaxDailyLoss = getEnvFloatWithDefault("MAX_DAILY_LOSS", limits.MaxDailyLoss)
	cfg.MaxOpenPositions = getEnvIntWithDefault("MAX_OPEN_POSITIONS", limits.MaxOpenPositions)
	cfg.RiskPerTrade = getEnvFloatWithDefault("RISK_PER_TRADE", limits.RiskPerTrade)

	cfg.MinConfidence = getEnvFloatWithDefault("MIN_CONFIDENCE", 0)
	cfg.StopLossPct = getEnvFloatWithDefault("STOP_LOSS_PCT", 0)
	cfg.TakeProfitRatio = getEnvFloatWithDefault("TAKE_PROFIT_RATIO", 0)

	cfg.StrategyFile = os.Getenv("STRATEGY_FILE")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// IsPaper reports whether orders go to the paper gateway
func (c *Config) IsPaper() bool {
	return c.TradingMode == ModePaper
}

// HasDatabase reports whether Postgres settings are present
func (c *Config) HasDatabase() bool {
	return c.Database.Host != "" && c.Database.DBName != ""
}

// HasTelegram reports whether notifications can be sent
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// RequestsPerMinute converts REQUESTS_PER_SEC for the HTTP client; 0 keeps
// the gateway default.
func (c *Config) RequestsPerMinute() int {
	return c.RequestsPerSec * 60
}

// Limits returns the trading engine risk limits
func (c *Config) Limits() risk.Limits {
	limits := risk.DefaultLimits()
	limits.MaxPositionSize = c.MaxPositionSize
	limits.MaxDailyLoss = c.MaxDailyLoss
	limits.MaxOpenPositions = c.MaxOpenPositions
	limits.RiskPerTrade = c.RiskPerTrade
	return limits
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
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer value")
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer value")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric value")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
