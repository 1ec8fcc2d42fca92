package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL string
	RedisURL    string
	Env         string
	Port        string

	LogLevel  string
	LogFormat string

	// Twilio WhatsApp credentials
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	// TwilioStubMode skips real API calls and fabricates message SIDs.
	// Used for local development without Twilio credentials.
	TwilioStubMode bool

	// Ark LLM credentials (text generation provider)
	ArkAPIKey      string
	ArkModel       string
	ArkBaseURL     string
	ArkRegion      string
	ArkTimeoutSecs int

	// Message-body encryption key (base64, 32 bytes decoded). Optional;
	// when empty, message bodies are stored in plaintext.
	MessageEncryptionKey string

	// ReminderSchedule is a cron expression for the per-minute reminder
	// sweep; ReminderEnabled gates the whole worker.
	ReminderEnabled  bool
	ReminderSchedule string

	// DedupeTTLSecs bounds how long an inbound MessageSid is remembered.
	DedupeTTLSecs int
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		Env:         getEnvWithDefault("ENV", "development"),
		Port:        getEnvWithDefault("PORT", "5000"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		TwilioStubMode:       getEnvBool("TWILIO_STUB_MODE", false),

		ArkAPIKey:      os.Getenv("ARK_API_KEY"),
		ArkModel:       os.Getenv("ARK_MODEL"),
		ArkBaseURL:     getEnvWithDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvWithDefault("ARK_REGION", "cn-beijing"),
		ArkTimeoutSecs: getEnvInt("ARK_TIMEOUT_SECONDS", 30),

		MessageEncryptionKey: os.Getenv("MESSAGE_ENCRYPTION_KEY"),

		ReminderEnabled:  getEnvBool("REMINDER_ENABLED", true),
		ReminderSchedule: getEnvWithDefault("REMINDER_SCHEDULE", "* * * * *"),

		DedupeTTLSecs: getEnvInt("DEDUPE_TTL_SECONDS", 86400),
	}

	if cfg.TwilioAccountSID == "" && !cfg.TwilioStubMode {
		log.Println("WARNING: TWILIO_ACCOUNT_SID not set; outbound messages will fail. Set TWILIO_STUB_MODE=true for local development.")
	}

	return cfg
}

// AIEnabled reports whether the text generation provider is configured.
func (c *Config) AIEnabled() bool {
	return c.ArkAPIKey != "" && c.ArkModel != ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: invalid boolean for %s: %q (using default %v)", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: invalid integer for %s: %q (using default %d)", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
