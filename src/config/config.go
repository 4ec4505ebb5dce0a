// Package config provides configuration management for the TeamCity client tooling.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultWatchInterval is used when TC_WATCH_INTERVAL is not set.
const DefaultWatchInterval = 30 * time.Second

// AuthMode selects how requests are authenticated against the server.
type AuthMode string

const (
	AuthGuest AuthMode = "guest"
	AuthHTTP  AuthMode = "http"
	AuthToken AuthMode = "token"
)

// Config holds the application configuration.
type Config struct {
	// TeamCityURL is the server root, e.g. https://teamcity.jetbrains.com.
	TeamCityURL string
	// TeamCityToken is an access token. Takes precedence over username/password.
	TeamCityToken    string
	TeamCityUsername string
	TeamCityPassword string
	// Debug turns on request tracing.
	Debug bool

	// RedpandaBrokers enables the Kafka broker for the watcher when non-empty.
	RedpandaBrokers []string
	// PostgresDSN enables the Postgres build store when non-empty.
	PostgresDSN string
	// WatchInterval is the polling period of the build watcher.
	WatchInterval time.Duration
}

// AuthMode derives the authentication mode: token, then username/password, then guest.
func (c *Config) AuthMode() AuthMode {
	switch {
	case c.TeamCityToken != "":
		return AuthToken
	case c.TeamCityUsername != "":
		return AuthHTTP
	default:
		return AuthGuest
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	serverURL := strings.TrimRight(os.Getenv("TEAMCITY_URL"), "/")
	if serverURL == "" {
		return nil, fmt.Errorf("TEAMCITY_URL environment variable is required")
	}

	cfg := &Config{
		TeamCityURL:      serverURL,
		TeamCityToken:    os.Getenv("TEAMCITY_TOKEN"),
		TeamCityUsername: os.Getenv("TEAMCITY_USERNAME"),
		TeamCityPassword: os.Getenv("TEAMCITY_PASSWORD"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedpandaBrokers:  splitList(os.Getenv("REDPANDA_BROKERS")),
		WatchInterval:    DefaultWatchInterval,
	}

	if cfg.TeamCityUsername != "" && cfg.TeamCityPassword == "" && cfg.TeamCityToken == "" {
		return nil, fmt.Errorf("TEAMCITY_PASSWORD is required when TEAMCITY_USERNAME is set")
	}

	if v := os.Getenv("TEAMCITY_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TEAMCITY_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	if v := os.Getenv("TC_WATCH_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TC_WATCH_INTERVAL %q: %w", v, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("TC_WATCH_INTERVAL must be positive, got %s", interval)
		}
		cfg.WatchInterval = interval
	}

	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
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
