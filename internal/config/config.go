// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, archive
// retention, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tmarkou/go-lab-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-lab-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RateConfig defines both throttling layers: the edge token bucket applied
// to every request, and the per-actor fixed windows enforced by the
// application (a strict one for destructive operations, a looser one for
// everything else).
type RateConfig struct {
	// Edge token bucket (per user/IP)
	RPS   float64 // RATE_RPS: tokens per second (>= 0)
	Burst int     // RATE_BURST: bucket size (>= 1)

	// Fixed windows (per actor)
	DestructiveCeiling int           // RATE_DESTRUCTIVE_CEILING
	DestructiveWindow  time.Duration // RATE_DESTRUCTIVE_WINDOW
	GeneralCeiling     int           // RATE_GENERAL_CEILING
	GeneralWindow      time.Duration // RATE_GENERAL_WINDOW

	// RedisAddr, when set, backs the fixed windows with a shared Redis
	// counter so limits hold across instances. Empty means in-memory.
	RedisAddr string // RATE_REDIS_ADDR (e.g. "redis:6379")
}

// ArchiveConfig defines soft-delete retention settings.
type ArchiveConfig struct {
	RetentionDays int // ARCHIVE_RETENTION_DAYS: days before a soft-deleted row is purge-eligible
}

// DeletionConfig carries per-type overrides of the soft/hard deletion
// policy. PolicyOverrides is parsed from DELETE_POLICY_OVERRIDES, a CSV of
// type:mode pairs, e.g. "task:hard,idea:hard". Unlisted types keep the
// built-in policy; modes other than "soft" and "hard" fail validation.
type DeletionConfig struct {
	PolicyOverrides map[string]string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath   string // SQLite path
	Archive  ArchiveConfig
	Deletion DeletionConfig

	// Rate limiting
	Rate RateConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),
		Archive: ArchiveConfig{
			RetentionDays: getint("ARCHIVE_RETENTION_DAYS", 30),
		},
		Deletion: DeletionConfig{
			PolicyOverrides: splitKV(getenv("DELETE_POLICY_OVERRIDES", "")),
		},

		// Rate limiting
		Rate: RateConfig{
			RPS:                getfloat("RATE_RPS", 25.0),
			Burst:              getint("RATE_BURST", 50),
			DestructiveCeiling: getint("RATE_DESTRUCTIVE_CEILING", 5),
			DestructiveWindow:  getdur("RATE_DESTRUCTIVE_WINDOW", time.Minute),
			GeneralCeiling:     getint("RATE_GENERAL_CEILING", 60),
			GeneralWindow:      getdur("RATE_GENERAL_WINDOW", time.Minute),
			RedisAddr:          getenv("RATE_REDIS_ADDR", ""),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-lab-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Archive.RetentionDays < 1 {
		return cfg, errors.New("ARCHIVE_RETENTION_DAYS must be >= 1")
	}
	// Shape check only; whether a tag names a known entity type is the
	// deletion service's call when the override is applied.
	for tag, mode := range cfg.Deletion.PolicyOverrides {
		if tag == "" || (mode != "soft" && mode != "hard") {
			return cfg, errors.New("DELETE_POLICY_OVERRIDES entries must be <type>:soft or <type>:hard")
		}
	}
	if cfg.Rate.RPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.Rate.Burst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Rate.DestructiveCeiling < 1 || cfg.Rate.GeneralCeiling < 1 {
		return cfg, errors.New("rate window ceilings must be >= 1")
	}
	if cfg.Rate.DestructiveWindow <= 0 || cfg.Rate.GeneralWindow <= 0 {
		return cfg, errors.New("rate windows must be positive durations")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		// Only explicit falsy values override the default; garbage keeps it.
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitKV parses "k:v,k2:v2" into a map. A pair without a colon keeps the
// raw text as its key with an empty value, so downstream validation can
// report the typo instead of the pair vanishing.
func splitKV(s string) map[string]string {
	items := splitCSV(s)
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, _ := strings.Cut(item, ":")
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
