package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider exposes read-only access to configuration. Components depend on
// this rather than on *Config so tests can hand in their own values.
type Provider interface {
	Get() Config
}

// Config holds all configuration for the application.
type Config struct {
	Addr            string
	TickHz          int
	BroadcastHz     int
	StartingBalance int
	Difficulty      float64
	Autopilot       bool
	CatalogPath     string
	SessionSecret   string

	CommentaryMode       string
	CommentaryScriptPath string
	CommentaryURL        string
	CommentaryAPIKey     string
	CommentaryCooldown   time.Duration
	CommentaryTimeout    time.Duration

	TracingEnabled bool
	ZipkinURL      string
	Pprof          bool

	LogFormat string
	LogLevel  string
}

// Get implements Provider.
func (c *Config) Get() Config {
	return *c
}

// Defaults returns the configuration used when no environment is set.
func Defaults() Config {
	return Config{
		Addr:               ":8080",
		SessionSecret:      "arena-dev-session-secret",
		TickHz:             60,
		BroadcastHz:        20,
		StartingBalance:    1000,
		Difficulty:         1,
		CommentaryMode:     "script",
		CommentaryCooldown: 8 * time.Second,
		CommentaryTimeout:  5 * time.Second,
		ZipkinURL:          "http://localhost:9411/api/v2/spans",
		LogFormat:          "text",
		LogLevel:           "info",
	}
}

// New loads configuration from environment variables, reading a .env file
// first when one exists.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) *Config {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("Ignoring invalid numeric config value", "key", key, "value", v)
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("Ignoring invalid boolean config value", "key", key, "value", v)
			return
		}
		*dst = b
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			slog.Warn("Ignoring invalid duration config value", "key", key, "value", v)
			return
		}
		*dst = d
	}

	str("ARENA_ADDR", &cfg.Addr)
	num("ARENA_TICK_HZ", &cfg.TickHz)
	num("ARENA_BROADCAST_HZ", &cfg.BroadcastHz)
	num("ARENA_STARTING_BALANCE", &cfg.StartingBalance)
	flag("ARENA_AUTOPILOT", &cfg.Autopilot)
	str("ARENA_CATALOG_PATH", &cfg.CatalogPath)
	str("ARENA_SESSION_SECRET", &cfg.SessionSecret)
	if v, ok := lookup("ARENA_DIFFICULTY"); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Difficulty = f
		} else {
			slog.Warn("Ignoring invalid numeric config value", "key", "ARENA_DIFFICULTY", "value", v)
		}
	}

	str("COMMENTARY_MODE", &cfg.CommentaryMode)
	str("COMMENTARY_SCRIPT_PATH", &cfg.CommentaryScriptPath)
	str("COMMENTARY_URL", &cfg.CommentaryURL)
	str("COMMENTARY_API_KEY", &cfg.CommentaryAPIKey)
	dur("COMMENTARY_COOLDOWN", &cfg.CommentaryCooldown)
	dur("COMMENTARY_TIMEOUT", &cfg.CommentaryTimeout)

	flag("PUBSUB_TRACING_ENABLED", &cfg.TracingEnabled)
	str("PUBSUB_TRACING_ZIPKIN_URL", &cfg.ZipkinURL)
	flag("DEBUG_PPROF", &cfg.Pprof)

	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)

	return &cfg
}
