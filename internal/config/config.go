package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the hostess-api service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"hostess-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HOSTESS_API_PORT" envDefault:"8190"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Auth (optional JWT verification for management endpoints)
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"ISSUER"`
	AuthAudience string `env:"AUDIENCE"`
	AuthJWKSURL  string `env:"JWKS_URL"`

	// Database
	DatabaseURL   string        `env:"DATABASE_URL"`
	DBMaxIdle     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpen     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Session store. Empty RedisURL selects the in-memory store.
	RedisURL       string        `env:"REDIS_URL" envDefault:""`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"10m"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	TurnLockExpiry time.Duration `env:"TURN_LOCK_EXPIRY" envDefault:"30s"`

	// LLM provider (OpenAI-compatible, Groq by default)
	LLMBaseURL      string   `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	LLMAPIKeys      []string `env:"GROQ_API_KEYS" envSeparator:","`
	ExtractionModel string   `env:"EXTRACTION_MODEL" envDefault:"llama-3.3-70b-versatile"`
	PhrasingModel   string   `env:"PHRASING_MODEL" envDefault:"llama-3.3-70b-versatile"`

	// Speech
	TranscriptionModel string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-large-v3"`
	SynthesisModel     string `env:"SYNTHESIS_MODEL" envDefault:"playai-tts"`
	SynthesisVoice     string `env:"SYNTHESIS_VOICE" envDefault:"Celeste-PlayAI"`
	SynthesisBudget    int    `env:"SYNTHESIS_CHARS_PER_MINUTE" envDefault:"6000"`
	FallbackTTSURL     string `env:"FALLBACK_TTS_URL" envDefault:""`
	FallbackTTSVoice   string `env:"FALLBACK_TTS_VOICE" envDefault:"en-IN-female"`

	// Slot seeding for fresh databases
	SeedSlots         bool `env:"SEED_SLOTS" envDefault:"true"`
	SeedDays          int  `env:"SEED_DAYS" envDefault:"14"`
	SeedTableCapacity int  `env:"SEED_TABLE_CAPACITY" envDefault:"40"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthAudience) == "" {
			return nil, fmt.Errorf("AUDIENCE is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if len(cfg.LLMAPIKeys) == 0 {
		return nil, fmt.Errorf("GROQ_API_KEYS is required")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
