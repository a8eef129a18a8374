// Package config loads server settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/server and cmd/seed need to start.
type Config struct {
	Port   int
	DBPath string

	JWTSecret  string
	TokenTTL   time.Duration // 0 = tokens never expire
	BcryptCost int

	LogLevel  string // debug|info|warn|error
	LogFormat string // text|json
	LogFile   string // empty = stdout only

	CORSAllowedOrigins []string
}

// Load reads .env (if present) and then the environment. Real environment
// variables win over .env entries, since godotenv.Load never overwrites a
// variable that is already set.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(key, d string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return d
		}
		return v
	}

	port, err := strconv.Atoi(def("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("config: PORT: %w", err)
	}

	ttl, err := time.ParseDuration(def("TOKEN_TTL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("config: TOKEN_TTL: %w", err)
	}

	cost, err := strconv.Atoi(def("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("config: BCRYPT_COST: %w", err)
	}

	cfg := &Config{
		Port:   port,
		DBPath: def("DB_PATH", "data/conduit.db"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   ttl,
		BcryptCost: cost,

		LogLevel:  strings.ToLower(def("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(def("LOG_FORMAT", "text")),
		LogFile:   os.Getenv("LOG_FILE"),

		CORSAllowedOrigins: splitList(def("CORS_ALLOWED_ORIGINS", "*")),
	}

	return cfg, nil
}

// Validate returns an error for settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is empty"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of text, json", c.LogFormat))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
