// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the webhook server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the server falls back to in-memory stores (dev mode).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// ChatBaseURL is the chat platform Web API base URL (default https://slack.com/api).
	ChatBaseURL string `mapstructure:"CHAT_BASE_URL"`
	// ChatBotToken is the bearer token for push and status calls. Empty disables outbound chat (dev mode logs instead).
	ChatBotToken string `mapstructure:"CHAT_BOT_TOKEN"`

	// TextgenBaseURL is the OpenAI-compatible completions base URL (e.g. https://api.openai.com/v1).
	// Empty disables the model-assisted intent path; free text then resolves to unsupported.
	TextgenBaseURL string `mapstructure:"TEXTGEN_BASE_URL"`
	// TextgenAPIKey is the bearer token for the text generation API.
	TextgenAPIKey string `mapstructure:"TEXTGEN_API_KEY"`
	// TextgenModel is the model name sent with completion requests (default gpt-4o-mini).
	TextgenModel string `mapstructure:"TEXTGEN_MODEL"`

	// IntentConfidenceFloor is the minimum classifier confidence (0..1); results below it
	// are treated as unsupported (default 0.7).
	IntentConfidenceFloor float64 `mapstructure:"INTENT_CONFIDENCE_FLOOR"`
	// ExecutorBudget is how long a dispatched side effect may run before the caller falls
	// back to a provisional response (e.g. "1s"). The work itself is never cancelled.
	ExecutorBudget string `mapstructure:"EXECUTOR_BUDGET"`
	// DefaultFocusMinutes is the session length used when a focus command carries no duration (default 25).
	DefaultFocusMinutes int `mapstructure:"DEFAULT_FOCUS_MINUTES"`

	// Telemetry (optional). When Kafka brokers are set, the server emits usage events to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events (default focusflow-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317). Empty disables OTel export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CHAT_BASE_URL", "https://slack.com/api")
	v.SetDefault("CHAT_BOT_TOKEN", "")
	v.SetDefault("TEXTGEN_BASE_URL", "")
	v.SetDefault("TEXTGEN_API_KEY", "")
	v.SetDefault("TEXTGEN_MODEL", "gpt-4o-mini")
	v.SetDefault("INTENT_CONFIDENCE_FLOOR", 0.7)
	v.SetDefault("EXECUTOR_BUDGET", "1s")
	v.SetDefault("DEFAULT_FOCUS_MINUTES", 25)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "focusflow-telemetry")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "focusflow-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.IntentConfidenceFloor < 0 || cfg.IntentConfidenceFloor > 1 {
		return nil, errors.New("config: INTENT_CONFIDENCE_FLOOR must be between 0 and 1")
	}

	if cfg.DefaultFocusMinutes == 0 {
		cfg.DefaultFocusMinutes = 25
	}
	if cfg.DefaultFocusMinutes < 1 || cfg.DefaultFocusMinutes > 480 {
		return nil, errors.New("config: DEFAULT_FOCUS_MINUTES must be between 1 and 480")
	}

	return &cfg, nil
}

// ExecutorBudgetDuration parses ExecutorBudget as a time.Duration. Returns 1s if unset or invalid.
func (c *Config) ExecutorBudgetDuration() time.Duration {
	d, err := time.ParseDuration(c.ExecutorBudget)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
