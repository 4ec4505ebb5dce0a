package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"TEAMCITY_URL", "TEAMCITY_TOKEN", "TEAMCITY_USERNAME", "TEAMCITY_PASSWORD",
		"TEAMCITY_DEBUG", "REDPANDA_BROKERS", "POSTGRES_DSN", "TC_WATCH_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("guest defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEAMCITY_URL", "https://teamcity.example.com/")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() unexpected error: %v", err)
		}
		if cfg.TeamCityURL != "https://teamcity.example.com" {
			t.Errorf("TeamCityURL = %v, want trailing slash trimmed", cfg.TeamCityURL)
		}
		if cfg.AuthMode() != AuthGuest {
			t.Errorf("AuthMode() = %v, want %v", cfg.AuthMode(), AuthGuest)
		}
		if cfg.WatchInterval != DefaultWatchInterval {
			t.Errorf("WatchInterval = %v, want %v", cfg.WatchInterval, DefaultWatchInterval)
		}
		if len(cfg.RedpandaBrokers) != 0 {
			t.Errorf("RedpandaBrokers = %v, want empty", cfg.RedpandaBrokers)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		clearEnv(t)

		if _, err := LoadFromEnv(); err == nil {
			t.Error("LoadFromEnv() expected error for missing TEAMCITY_URL, got nil")
		}
	})

	t.Run("token wins over password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEAMCITY_URL", "https://tc")
		t.Setenv("TEAMCITY_TOKEN", "tok")
		t.Setenv("TEAMCITY_USERNAME", "alice")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() unexpected error: %v", err)
		}
		if cfg.AuthMode() != AuthToken {
			t.Errorf("AuthMode() = %v, want %v", cfg.AuthMode(), AuthToken)
		}
	})

	t.Run("username without password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEAMCITY_URL", "https://tc")
		t.Setenv("TEAMCITY_USERNAME", "alice")

		if _, err := LoadFromEnv(); err == nil {
			t.Error("LoadFromEnv() expected error for missing password, got nil")
		}
	})

	t.Run("http auth and extras", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEAMCITY_URL", "https://tc")
		t.Setenv("TEAMCITY_USERNAME", "alice")
		t.Setenv("TEAMCITY_PASSWORD", "secret")
		t.Setenv("TEAMCITY_DEBUG", "true")
		t.Setenv("REDPANDA_BROKERS", "localhost:19092, other:9092,")
		t.Setenv("TC_WATCH_INTERVAL", "5s")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() unexpected error: %v", err)
		}
		if cfg.AuthMode() != AuthHTTP {
			t.Errorf("AuthMode() = %v, want %v", cfg.AuthMode(), AuthHTTP)
		}
		if !cfg.Debug {
			t.Error("Debug = false, want true")
		}
		if len(cfg.RedpandaBrokers) != 2 || cfg.RedpandaBrokers[1] != "other:9092" {
			t.Errorf("RedpandaBrokers = %v, want [localhost:19092 other:9092]", cfg.RedpandaBrokers)
		}
		if cfg.WatchInterval != 5*time.Second {
			t.Errorf("WatchInterval = %v, want 5s", cfg.WatchInterval)
		}
	})

	t.Run("bad interval", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEAMCITY_URL", "https://tc")
		t.Setenv("TC_WATCH_INTERVAL", "soon")

		if _, err := LoadFromEnv(); err == nil {
			t.Error("LoadFromEnv() expected error for bad interval, got nil")
		}
	})
}
