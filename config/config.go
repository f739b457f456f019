// Package config loads application configuration from environment variables.
// Detector tunables parsed here are only the startup seed — they move into
// the engine's ConfigStore and can be changed at runtime through the gateway.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Feed
	FeedURL        string // PSX market feed WebSocket URL
	FeedTOTPSecret string // optional vendor TOTP secret for the auth frame

	// Symbol universe
	SymbolsURL      string // HTTP endpoint returning the tracked symbol list
	FallbackSymbols string // comma-separated fallback when the lookup fails

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	GatewayAddr   string

	// Notification
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Detector seed values
	MinVolume       int64
	SurgeThreshold  float64
	IntervalSeconds int
	CandleCapacity  int
	DetectorPreset  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		FeedURL:        getEnv("FEED_URL", "wss://ielapis.u2ventures.io/ws/market/feed/"),
		FeedTOTPSecret: getEnv("FEED_TOTP_SECRET", ""),

		SymbolsURL:      getEnv("SYMBOLS_URL", "https://ielapis.u2ventures.io/api/psxApi/search/all-stocks/"),
		FallbackSymbols: getEnv("FALLBACK_SYMBOLS", "PSO,OGDC,PPL,HBL,MCB"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/candles.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		GatewayAddr:   getEnv("GATEWAY_ADDR", ":8080"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		MinVolume:       getEnvInt64("MIN_VOLUME", 50000),
		SurgeThreshold:  getEnvFloat("SURGE_THRESHOLD", 1.2),
		IntervalSeconds: getEnvInt("CANDLE_INTERVAL_SECONDS", 60),
		CandleCapacity:  getEnvInt("CANDLE_CAPACITY", 30),
		DetectorPreset:  getEnv("DETECTOR_PRESET", "default"),
	}
}

// ParseFallbackSymbols splits the fallback list, skipping empty entries.
func (c *Config) ParseFallbackSymbols() []string {
	parts := strings.Split(c.FallbackSymbols, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		symbols = append(symbols, p)
	}
	return symbols
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
