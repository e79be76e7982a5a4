package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Telegram
	BotToken       string
	BotUsername    string
	WebhookSecret  string
	TelegramAPIURL string
	WidgetMaxAge   time.Duration // макс. возраст auth_date из Login Widget

	// Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// Exchange
	AppTokens       []string
	DefaultRedirect string

	// Token lifetimes
	SessionTTL time.Duration
	StateTTL   time.Duration
	CodeTTL    time.Duration
	NonceTTL   time.Duration

	// Outbound calls (bot, google, redis)
	OutboundTimeout time.Duration

	// Optional login event stream
	RedisURL string

	// Server
	APIPort     string
	CORSOrigins string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		BotUsername:    getEnv("BOT_USERNAME", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		TelegramAPIURL: strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		WidgetMaxAge:   seconds("WIDGET_MAX_AGE_SECONDS", 86400),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:8886/google/callback"),

		AppTokens:       parseList(getEnv("APP_TOKENS", "")),
		DefaultRedirect: getEnv("DIRECT_REDIRECT", ""),

		SessionTTL: seconds("SESSION_TTL_SECONDS", 300),
		StateTTL:   seconds("STATE_TTL_SECONDS", 300),
		CodeTTL:    seconds("CODE_TTL_SECONDS", 60),
		NonceTTL:   seconds("NONCE_TTL_SECONDS", 300),

		OutboundTimeout: seconds("OUTBOUND_TIMEOUT_SECONDS", 5),

		RedisURL: getEnv("REDIS_URL", ""),

		APIPort:     getEnv("PORT", "8886"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

// TelegramEnabled reports whether the QR flow can build deep links.
func (c *Config) TelegramEnabled() bool {
	return c.BotUsername != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

func (c *Config) Validate(log *zap.Logger) {
	if c.BotToken == "" {
		log.Warn("BOT_TOKEN is not set, bot notifications and widget login are disabled")
	}
	if c.BotUsername == "" {
		log.Warn("BOT_USERNAME is not set, QR deep links will be broken")
	}
	if c.WebhookSecret == "" {
		log.Warn("WEBHOOK_SECRET is not set, webhook accepts unsigned updates")
	}
	if len(c.AppTokens) == 0 {
		log.Warn("APP_TOKENS is not set, any caller may redeem exchange codes")
	}
	if c.GoogleClientID != "" && c.GoogleClientSecret == "" {
		log.Warn("GOOGLE_CLIENT_SECRET is not set, token exchange will fail")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func seconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var items []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}
