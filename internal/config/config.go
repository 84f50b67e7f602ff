// Package config resolves runtime settings from CANVASS_* environment variables.
// The CLI uses the result as flag defaults, so flags override the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

const envPrefix = "CANVASS_"

type Config struct {
	LogLevel  string
	LogFormat string // text|json

	HTTPAddr    string
	CORSOrigins []string
	Metrics     bool

	// SurveysDir holds survey definitions; empty means the built-in catalog.
	SurveysDir string

	StoreDriver string // memory|file|redis|sqlite|postgres
	StoreDSN    string // directory, redis URL or SQL DSN depending on the driver
	SessionTTL  time.Duration
	LockTTL     time.Duration

	EncryptionKey  string
	FallbackKeys   []string
	RedactFreeText bool
}

func FromEnv() Config {
	return Config{
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "*"),
		Metrics:        envBool("METRICS", true),
		SurveysDir:     envOr("SURVEYS_DIR", ""),
		StoreDriver:    envOr("STORE", StoreFile),
		StoreDSN:       envOr("STORE_DSN", ""),
		SessionTTL:     envDuration("SESSION_TTL", 0),
		LockTTL:        envDuration("LOCK_TTL", 30*time.Second),
		EncryptionKey:  envOr("ENCRYPTION_KEY", ""),
		FallbackKeys:   csvOr("FALLBACK_KEYS", ""),
		RedactFreeText: envBool("REDACT_FREE_TEXT", false),
	}
}

// Validate rejects settings no component can serve.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis, sqlite or postgres)", c.StoreDriver)
	}
	if c.StoreDriver == StorePostgres && c.StoreDSN == "" {
		return fmt.Errorf("store %q requires a DSN", c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.SessionTTL < 0 || c.LockTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// DSN returns StoreDSN or the driver's default location.
func (c Config) DSN() string {
	if c.StoreDSN != "" {
		return c.StoreDSN
	}
	switch c.StoreDriver {
	case StoreFile:
		return ".canvass/sessions"
	case StoreRedis:
		return "redis://localhost:6379/0"
	case StoreSQLite:
		return "file:.canvass/canvass.db?mode=rwc&_pragma=busy_timeout(5000)"
	}
	return ""
}

func envOr(k, def string) string {
	v := os.Getenv(envPrefix + k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(envPrefix + k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envPrefix + k))
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
