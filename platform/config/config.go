// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// ThresholdConfig provides the confidence cutoffs that split intake routing
// and invoice line classification into their tiers.
type ThresholdConfig interface {
	GetIntakeHighThreshold() float64
	GetIntakeMediumThreshold() float64
	GetInvoiceHighThreshold() float64
	GetInvoiceMediumThreshold() float64
	GetTaxRate() float64
}

// DeadlineConfig provides the per-collaborator call deadlines.
type DeadlineConfig interface {
	GetSTTDeadline() time.Duration
	GetChatCompletionDeadline() time.Duration
	GetMessengerDeadline() time.Duration
	GetCatalogFetchDeadline() time.Duration
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// QueueConfig provides settings for the asynq-backed review-queue dispatch.
type QueueConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

// MessengerConfig provides settings for the outbound WhatsApp messenger.
type MessengerConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// AIConfig provides settings for the STT, chat-completion, and
// detect/translate collaborators.
type AIConfig interface {
	GetAnthropicAPIKey() string
	GetAnthropicModel() string
	GetGenAIAPIKey() string
	GetGenAIModel() string
	GetWhisperModelPath() string
	GetSTTLanguageHint() string
	GetBusinessLanguages() []string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	AnthropicAPIKey  string
	AnthropicModel   string
	GenAIAPIKey      string
	GenAIModel       string
	WhisperModelPath string
	STTLanguageHint  string

	BusinessLanguages []string

	IntakeHighThreshold    float64
	IntakeMediumThreshold  float64
	InvoiceHighThreshold   float64
	InvoiceMediumThreshold float64
	TaxRate                float64

	STTDeadline            time.Duration
	ChatCompletionDeadline time.Duration
	MessengerDeadline      time.Duration
	CatalogFetchDeadline   time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetIntakeHighThreshold() float64    { return c.IntakeHighThreshold }
func (c *Config) GetIntakeMediumThreshold() float64  { return c.IntakeMediumThreshold }
func (c *Config) GetInvoiceHighThreshold() float64   { return c.InvoiceHighThreshold }
func (c *Config) GetInvoiceMediumThreshold() float64 { return c.InvoiceMediumThreshold }
func (c *Config) GetTaxRate() float64                { return c.TaxRate }

func (c *Config) GetSTTDeadline() time.Duration            { return c.STTDeadline }
func (c *Config) GetChatCompletionDeadline() time.Duration { return c.ChatCompletionDeadline }
func (c *Config) GetMessengerDeadline() time.Duration      { return c.MessengerDeadline }
func (c *Config) GetCatalogFetchDeadline() time.Duration   { return c.CatalogFetchDeadline }

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetRedisAddr() string     { return c.RedisAddr }
func (c *Config) GetRedisPassword() string { return c.RedisPassword }
func (c *Config) GetRedisDB() int          { return c.RedisDB }

func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

func (c *Config) GetAnthropicAPIKey() string   { return c.AnthropicAPIKey }
func (c *Config) GetAnthropicModel() string    { return c.AnthropicModel }
func (c *Config) GetGenAIAPIKey() string       { return c.GenAIAPIKey }
func (c *Config) GetGenAIModel() string        { return c.GenAIModel }
func (c *Config) GetWhisperModelPath() string  { return c.WhisperModelPath }
func (c *Config) GetSTTLanguageHint() string   { return c.STTLanguageHint }
func (c *Config) GetBusinessLanguages() []string { return c.BusinessLanguages }

func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(mustInt64(getEnv("REDIS_DB", "0"))),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GenAIAPIKey:      getEnv("GENAI_API_KEY", ""),
		GenAIModel:       getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		WhisperModelPath: getEnv("WHISPER_MODEL_PATH", "models/ggml-medium.bin"),
		STTLanguageHint:  getEnv("STT_LANGUAGE_HINT", "es"),

		BusinessLanguages: splitCSV(getEnv("BUSINESS_LANGUAGES", "es")),

		IntakeHighThreshold:    mustFloat(getEnv("INTAKE_HIGH_THRESHOLD", "0.85")),
		IntakeMediumThreshold:  mustFloat(getEnv("INTAKE_MEDIUM_THRESHOLD", "0.50")),
		InvoiceHighThreshold:   mustFloat(getEnv("INVOICE_HIGH_THRESHOLD", "0.85")),
		InvoiceMediumThreshold: mustFloat(getEnv("INVOICE_MEDIUM_THRESHOLD", "0.70")),
		TaxRate:                mustFloat(getEnv("TAX_RATE", "0.21")),

		STTDeadline:            mustDuration(getEnv("STT_DEADLINE", "30s")),
		ChatCompletionDeadline: mustDuration(getEnv("CHAT_COMPLETION_DEADLINE", "30s")),
		MessengerDeadline:      mustDuration(getEnv("MESSENGER_DEADLINE", "30s")),
		CatalogFetchDeadline:   mustDuration(getEnv("CATALOG_FETCH_DEADLINE", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.GenAIAPIKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
