// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent identifies the fetcher to news sites.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrMissingCredential is returned when the selected model provider has no API key.
var ErrMissingCredential = errors.New("missing model API credential")

type Config struct {
	// Summarization settings
	Summarizer       string // "model" or "local"
	LLMProvider      string // "openai", "gemini" or "anthropic"
	LLMModel         string
	OpenAIAPIKey     string
	GeminiAPIKey     string
	AnthropicAPIKey  string
	MaxModelRequests int // 0 = unlimited
	ModelPacing      time.Duration
	SummaryCacheTTL  time.Duration

	// Collection settings
	SourcesConfigPath  string
	MaxNewsLimit       int
	RequestTimeout     time.Duration
	PolitenessDelay    time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	UserAgent          string
	AcceptLanguage     string
	InsecureSkipVerify bool
	Timezone           string
	FallbackMode       string // "extended" or "basic"

	// Storage settings
	StorageBackend string // "file", "postgres" or "redis"
	DataDir        string
	DatabaseURL    string
	RedisURL       string

	// Server settings
	HTTPAddr      string
	CrawlSchedule string

	// Telegram settings (optional digest publishing)
	TelegramToken  string
	TelegramChatID string
}

func Load() (*Config, error) {
	cfg := &Config{
		Summarizer:        getEnvOrDefault("SUMMARIZER", "model"),
		LLMProvider:       strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "openai")),
		LLMModel:          os.Getenv("LLM_MODEL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		MaxModelRequests:  getEnvIntOrDefault("MAX_MODEL_REQUESTS", 0),
		ModelPacing:       getEnvDurationOrDefault("MODEL_PACING", time.Second),
		SummaryCacheTTL:   getEnvDurationOrDefault("SUMMARY_CACHE_TTL", 24*time.Hour),
		SourcesConfigPath: getEnvOrDefault("SOURCES_CONFIG_PATH", "configs/sources.yaml"),
		MaxNewsLimit:      getEnvIntOrDefault("MAX_NEWS_LIMIT", 10),
		RequestTimeout:    getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
		PolitenessDelay:   getEnvDurationOrDefault("POLITENESS_DELAY", time.Second),
		RetryAttempts:     getEnvIntOrDefault("RETRY_ATTEMPTS", 1),
		RetryDelay:        getEnvDurationOrDefault("RETRY_DELAY", 500*time.Millisecond),
		UserAgent:         getEnvOrDefault("USER_AGENT", DefaultUserAgent),
		AcceptLanguage:    getEnvOrDefault("ACCEPT_LANGUAGE", "ko-KR,ko;q=0.9,en;q=0.8"),
		Timezone:          getEnvOrDefault("TIMEZONE", "Asia/Seoul"),
		FallbackMode:      getEnvOrDefault("FALLBACK_MODE", "extended"),
		StorageBackend:    getEnvOrDefault("STORAGE_BACKEND", "file"),
		DataDir:           getEnvOrDefault("DATA_DIR", "data"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		HTTPAddr:          getEnvOrDefault("HTTP_ADDR", ":8080"),
		CrawlSchedule:     os.Getenv("CRAWL_SCHEDULE"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
	}

	cfg.InsecureSkipVerify = os.Getenv("INSECURE_SKIP_VERIFY") == "true"

	return cfg, cfg.Validate()
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// ModelEnabled reports whether model-backed summarization is configured.
func (c *Config) ModelEnabled() bool {
	return c.Summarizer != "local"
}

// TelegramEnabled reports whether digest publishing is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) Validate() error {
	if c.Summarizer != "model" && c.Summarizer != "local" {
		return fmt.Errorf("SUMMARIZER must be 'model' or 'local'")
	}
	switch c.LLMProvider {
	case "openai", "gemini", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, gemini, anthropic (got %q)", c.LLMProvider)
	}
	if c.ModelEnabled() && c.APIKey() == "" {
		return fmt.Errorf("%w: %s is required", ErrMissingCredential, c.apiKeyEnv())
	}
	if c.MaxNewsLimit <= 0 {
		return fmt.Errorf("MAX_NEWS_LIMIT must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if c.FallbackMode != "extended" && c.FallbackMode != "basic" {
		return fmt.Errorf("FALLBACK_MODE must be 'extended' or 'basic'")
	}
	switch c.StorageBackend {
	case "file":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of file, postgres, redis")
	}
	return nil
}

func (c *Config) apiKeyEnv() string {
	switch c.LLMProvider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
