package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Completion providers understood by NewFromEnv.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderNone   = "none"
)

// Config holds the configuration for the application.
type Config struct {
	CompletionProvider string
	GeminiAPIKey       string
	GeminiModel        string
	GroqAPIKey         string
	GroqModel          string

	DatabasePath string
	CatalogPath  string
	RandomSeed   int64

	// Rate limiting
	RedisURL           string
	RateLimitUser      int
	RateLimitAnonymous int
	RateLimitWindow    time.Duration

	SessionSecret string

	// Forwarding headers are honoured only from these peers.
	TrustedProxies []netip.Prefix

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64

	Port      string
	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GroqModel:          getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/meal_planner.db"),
		CatalogPath:        os.Getenv("CATALOG_PATH"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	provider, err := resolveProvider(cfg)
	if err != nil {
		return nil, err
	}
	cfg.CompletionProvider = provider

	if cfg.RateLimitUser, err = getInt("RATE_LIMIT_USER", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitAnonymous, err = getInt("RATE_LIMIT_ANONYMOUS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitAnonymous > cfg.RateLimitUser {
		return nil, fmt.Errorf("RATE_LIMIT_ANONYMOUS must not exceed RATE_LIMIT_USER")
	}

	window := getEnv("RATE_LIMIT_WINDOW", "1h")
	cfg.RateLimitWindow, err = time.ParseDuration(window)
	if err != nil || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration, got %q", window)
	}

	if seed := os.Getenv("RANDOM_SEED"); seed != "" {
		cfg.RandomSeed, err = strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RANDOM_SEED must be an integer, got %q", seed)
		}
	}

	cfg.TelegramAllowedUserIDs, err = parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}

	cfg.TrustedProxies, err = parsePrefixList(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveProvider picks the completion backend. An explicit provider must
// have its key; otherwise the first configured key wins and no keys at all
// means every plan comes from the local catalog.
func resolveProvider(cfg *Config) (string, error) {
	switch p := strings.ToLower(os.Getenv("COMPLETION_PROVIDER")); p {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return p, nil
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return "", fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
		return p, nil
	case ProviderNone:
		return p, nil
	case "":
		if cfg.GeminiAPIKey != "" {
			return ProviderGemini, nil
		}
		if cfg.GroqAPIKey != "" {
			return ProviderGroq, nil
		}
		return ProviderNone, nil
	default:
		return "", fmt.Errorf("unknown COMPLETION_PROVIDER %q", p)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS contains invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePrefixList reads comma-separated addresses or CIDR ranges. A bare
// address is a single-host range.
func parsePrefixList(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES contains invalid range %q", part)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES contains invalid address %q", part)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
