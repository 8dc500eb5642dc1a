// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	Port        int
	DBPath      string
	Env         string   // "development" or "production"
	JWTSecret   string   // mandatory, no default — see Load
	CORSOrigins []string // origins allowed to send credentialed requests
	LogLevel    string   // debug, info, warn, error
}

// Production reports whether the service runs in a production-like
// environment. It drives the session cookie's Secure flag: enabled over
// HTTPS in production, disabled for local plain-HTTP development.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment, with a .env file overlay
// for local development (real deployments set real env vars; the file is
// a convenience and silently ignored when absent).
//
// FAIL CLOSED ON THE SIGNING SECRET:
// JWT_SECRET has no default and Load errors without it. A service that
// "helpfully" falls back to some built-in secret issues tokens anyone who
// has read the source can forge. Generate one with:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      8080,
		DBPath:    getenv("DB_PATH", "data/users.db"),
		Env:       getenv("APP_ENV", "development"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set (no default is permitted)")
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("config: JWT_SECRET must be at least 16 characters")
	}

	origins := getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
