package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

// Config holds service-level wiring read from the environment. Strategy
// parameters live in Profile, not here.
type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	DatabaseURL      string
	RedisURL         string
	HTTPPort         int
	APIKey           string

	KiteBaseURL    string
	KiteAPIKey     string
	KiteToken      string
	PollSecs       int
	SignalSymbol   string
	TradingSymbol  string
	BarInterval    string
	HistoricalDays int

	ProfileName    string
	TradingCapital float64

	OpenAIAPIKey string
	OpenAIModel  string

	MarketOpen    string
	MarketClose   string
	SquareOffTime string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           os.Getenv("API_KEY"),
		KiteAPIKey:       os.Getenv("KITE_API_KEY"),
		KiteToken:        os.Getenv("KITE_ACCESS_TOKEN"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram notifications disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		}
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.KiteBaseURL = strings.TrimSpace(os.Getenv("KITE_BASE_URL"))
	if cfg.KiteBaseURL == "" {
		cfg.KiteBaseURL = "https://api.kite.trade"
	}
	if cfg.KiteToken == "" {
		log.Println("Warning: KITE_ACCESS_TOKEN not set, live trading disabled")
	}

	cfg.PollSecs = 30
	if v := strings.TrimSpace(os.Getenv("POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollSecs = n
		}
	}

	cfg.SignalSymbol = strings.TrimSpace(os.Getenv("SIGNAL_SYMBOL"))
	if cfg.SignalSymbol == "" {
		cfg.SignalSymbol = "NIFTY_50"
	}

	cfg.TradingSymbol = strings.TrimSpace(os.Getenv("TRADING_SYMBOL"))
	if cfg.TradingSymbol == "" {
		if proxy, ok := domain.SignalToTrading[cfg.SignalSymbol]; ok {
			cfg.TradingSymbol = proxy
		} else {
			cfg.TradingSymbol = "NIFTYBEES"
		}
	}

	cfg.BarInterval = strings.TrimSpace(os.Getenv("BAR_INTERVAL"))
	if cfg.BarInterval == "" {
		cfg.BarInterval = "30minute"
	}

	cfg.HistoricalDays = 10
	if v := strings.TrimSpace(os.Getenv("HISTORICAL_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoricalDays = n
		}
	}

	cfg.ProfileName = strings.ToLower(strings.TrimSpace(os.Getenv("STRATEGY_PROFILE")))
	if cfg.ProfileName == "" {
		cfg.ProfileName = "balanced"
	}

	cfg.TradingCapital = 100000
	if v := strings.TrimSpace(os.Getenv("TRADING_CAPITAL")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.TradingCapital = n
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, backtest advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.MarketOpen = "09:15"
	if v := strings.TrimSpace(os.Getenv("MARKET_OPEN")); v != "" {
		cfg.MarketOpen = v
	}

	cfg.MarketClose = "15:30"
	if v := strings.TrimSpace(os.Getenv("MARKET_CLOSE")); v != "" {
		cfg.MarketClose = v
	}

	cfg.SquareOffTime = "15:20"
	if v := strings.TrimSpace(os.Getenv("SQUARE_OFF_TIME")); v != "" {
		cfg.SquareOffTime = v
	}

	return cfg
}
