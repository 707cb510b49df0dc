// Package config loads TradeCo SDK, sandbox and bootstrap settings from the
// environment, after merging any .env file found next to the process.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeAuto    = "auto"
	ModeHTTP    = "http"
	ModeSandbox = "sandbox"

	DefaultAPIURL     = "http://localhost:5000/api"
	DefaultMongoURI   = "mongodb://localhost:27017/"
	DefaultDBName     = "tradeco_db"
	DefaultSandboxKey = "change-this-secret-key"
)

// Config is the resolved process configuration.
type Config struct {
	API      APIConfig
	Session  SessionConfig
	Sandbox  SandboxConfig
	Mongo    MongoConfig
	Admin    AdminConfig
	LogLevel string
}

// APIConfig controls how the façade reaches the backend.
type APIConfig struct {
	URL     string
	Mode    string
	Timeout time.Duration

	// URLSet reports whether TRADECO_API_URL was present in the environment.
	URLSet bool
}

// SessionConfig selects where the session token and user are persisted.
type SessionConfig struct {
	// File is empty for an in-memory session.
	File string
}

// SandboxConfig configures the in-process and standalone sandbox backend.
type SandboxConfig struct {
	SeedFile string
	Secret   string
}

// MongoConfig is used by the database bootstrap.
type MongoConfig struct {
	URI    string
	DBName string
}

// AdminConfig describes the optional administrator seeded by the bootstrap.
type AdminConfig struct {
	Email    string
	Username string
	Password string
}

// Load reads .env files (if any) and then the environment. Values already
// present in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "../.env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
		break
	}

	apiURL, urlSet := os.LookupEnv("TRADECO_API_URL")
	apiURL = strings.TrimSpace(apiURL)
	if apiURL == "" {
		apiURL = DefaultAPIURL
		urlSet = false
	}

	timeout := time.Duration(0)
	if raw := strings.TrimSpace(os.Getenv("TRADECO_HTTP_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: TRADECO_HTTP_TIMEOUT: %w", err)
		}
		timeout = d
	}

	cfg := &Config{
		API: APIConfig{
			URL:     apiURL,
			URLSet:  urlSet,
			Mode:    strings.ToLower(getEnvOrDefault("TRADECO_RUNTIME_MODE", ModeAuto)),
			Timeout: timeout,
		},
		Session: SessionConfig{
			File: strings.TrimSpace(os.Getenv("TRADECO_SESSION_FILE")),
		},
		Sandbox: SandboxConfig{
			SeedFile: strings.TrimSpace(os.Getenv("TRADECO_SANDBOX_SEED")),
			Secret:   getEnvOrDefault("TRADECO_SANDBOX_SECRET", DefaultSandboxKey),
		},
		Mongo: MongoConfig{
			URI:    getEnvOrDefault("MONGODB_URI", DefaultMongoURI),
			DBName: getEnvOrDefault("DB_NAME", DefaultDBName),
		},
		Admin: AdminConfig{
			Email:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			Username: getEnvOrDefault("ADMIN_USERNAME", "admin"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	switch c.API.Mode {
	case ModeAuto, ModeHTTP, ModeSandbox:
	default:
		return fmt.Errorf("config: unsupported TRADECO_RUNTIME_MODE value %q", c.API.Mode)
	}
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid TRADECO_API_URL %q", c.API.URL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("config: TRADECO_HTTP_TIMEOUT must not be negative")
	}
	if strings.TrimSpace(c.Mongo.DBName) == "" {
		return errors.New("config: DB_NAME must not be empty")
	}
	return nil
}

// ResolveMode turns "auto" into a concrete mode.
func (c *Config) ResolveMode() string {
	if c.API.Mode != ModeAuto {
		return c.API.Mode
	}
	if c.API.URLSet {
		return ModeHTTP
	}
	return ModeSandbox
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
