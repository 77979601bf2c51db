// Package config loads the server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

// MinSessionKeyLength is the shortest SESSION_KEY accepted. The cookie store
// uses it as an HMAC key.
const MinSessionKeyLength = 32

// Config is the runtime configuration read from the environment.
type Config struct {
	Port     int
	DBDriver string // "sqlite" or "mysql"
	DBDSN    string

	SessionKey []byte
	// SessionKeyGenerated is set when SESSION_KEY was empty and a random
	// key was made up; sessions then end with the process.
	SessionKeyGenerated bool
	SecureCookies       bool

	// StaticDir serves assets from disk instead of the embedded copy.
	StaticDir string
	LogLevel  slog.Level

	// AdminName and AdminPassword seed the first admin of an empty
	// database. Both empty disables seeding.
	AdminName     string
	AdminPassword string
}

// Load reads .env and the environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error

	port, err := getEnvAsInt("PORT", 8080)
	if err != nil {
		errs = append(errs, err)
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", port))
	}

	secure, err := getEnvAsBool("SECURE_COOKIES", false)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Port:          port,
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:         getEnv("DB_DSN", "data/reelhub.db"),
		SecureCookies: secure,
		StaticDir:     getEnv("STATIC_DIR", ""),
		AdminName:     strings.TrimSpace(getEnv("ADMIN_NAME", "")),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, mysql", cfg.DBDriver))
	}
	if cfg.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN must not be empty"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	switch key := getEnv("SESSION_KEY", ""); {
	case key == "":
		cfg.SessionKey = securecookie.GenerateRandomKey(MinSessionKeyLength)
		cfg.SessionKeyGenerated = true
		if cfg.SessionKey == nil {
			errs = append(errs, errors.New("SESSION_KEY is empty and no random key could be generated"))
		}
	case len(key) < MinSessionKeyLength:
		errs = append(errs, fmt.Errorf("SESSION_KEY must be at least %d bytes", MinSessionKeyLength))
	default:
		cfg.SessionKey = []byte(key)
	}

	if (cfg.AdminName == "") != (cfg.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_NAME and ADMIN_PASSWORD must be set together"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, raw)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s %q is not a boolean", key, raw)
	}
	return value, nil
}
