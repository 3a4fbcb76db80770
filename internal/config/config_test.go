package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port <= 0 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Fetch.DefaultWorkers != 4 {
		t.Errorf("default workers = %d, want 4", cfg.Fetch.DefaultWorkers)
	}
	if cfg.Fetch.Timeout() != 15*time.Second {
		t.Errorf("fetch timeout = %v, want 15s", cfg.Fetch.Timeout())
	}
	if cfg.Jobs.TTL() != time.Hour {
		t.Errorf("job ttl = %v, want 1h", cfg.Jobs.TTL())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SHOPEETRACKER_PORT", "9999")
	t.Setenv("SHOPEETRACKER_BASE_URL", "http://localhost:1234")
	t.Setenv("SHOPEETRACKER_FETCH_TIMEOUT", "3")

	cfg := DefaultConfig()
	applyEnv(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Fetch.BaseURL != "http://localhost:1234" {
		t.Errorf("base url = %q", cfg.Fetch.BaseURL)
	}
	if cfg.Fetch.TimeoutSeconds != 3 {
		t.Errorf("timeout = %d, want 3", cfg.Fetch.TimeoutSeconds)
	}
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("SHOPEETRACKER_PORT", "not-a-port")

	cfg := DefaultConfig()
	applyEnv(cfg)

	if cfg.Server.Port != DefaultConfig().Server.Port {
		t.Errorf("port = %d, want the default", cfg.Server.Port)
	}
}
