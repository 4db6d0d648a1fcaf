package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "gopzcollab_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Session.PingTimeout <= 0 || cfg.Session.ReapInterval <= 0 {
		t.Fatalf("session timeouts not defaulted: %+v", cfg.Session)
	}
	if cfg.Bridge.PingInterval >= cfg.Bridge.PongTimeout {
		t.Fatalf("bridge ping interval %v must be below pong timeout %v", cfg.Bridge.PingInterval, cfg.Bridge.PongTimeout)
	}
}

func TestLoadConfigSessionOverrides(t *testing.T) {
	os.Setenv("SESSION_PING_TIMEOUT", "5")
	os.Setenv("SESSION_REAP_INTERVAL", "2")
	defer os.Unsetenv("SESSION_PING_TIMEOUT")
	defer os.Unsetenv("SESSION_REAP_INTERVAL")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Session.PingTimeout != 5*time.Second {
		t.Fatalf("ping timeout = %v, want 5s", cfg.Session.PingTimeout)
	}
	if cfg.Session.ReapInterval != 2*time.Second {
		t.Fatalf("reap interval = %v, want 2s", cfg.Session.ReapInterval)
	}
}
