package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fleetctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
  password: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.TokenLifetimeSeconds != 86400 {
		t.Errorf("TokenLifetimeSeconds = %d, want 86400", cfg.API.TokenLifetimeSeconds)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialBackoffMS != 0 {
		t.Errorf("Retry.InitialBackoffMS = %d, want 0", cfg.Retry.InitialBackoffMS)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults wrong: %+v", cfg.Logging)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
  password: secret
  token_lifetime_seconds: 3600
retry:
  max_attempts: 3
  initial_backoff_ms: 250
cache:
  redis_addr: localhost:6379
  ttl_seconds: 120
concurrency: 8
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.TokenLifetimeSeconds != 3600 {
		t.Errorf("TokenLifetimeSeconds = %d, want 3600", cfg.API.TokenLifetimeSeconds)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialBackoffMS != 250 {
		t.Errorf("Retry config wrong: %+v", cfg.Retry)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.TTLSeconds != 120 {
		t.Errorf("Cache config wrong: %+v", cfg.Cache)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Concurrency)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("FLEET_API_ENDPOINT", "https://admin.example.com/v1/admin")
	t.Setenv("FLEET_API_EMAIL", "ops@example.com")
	t.Setenv("FLEET_API_PASSWORD", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Endpoint != "https://admin.example.com/v1/admin" {
		t.Errorf("Endpoint = %q, want env value", cfg.API.Endpoint)
	}
	if cfg.API.Password != "secret" {
		t.Errorf("Password not taken from environment")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing endpoint",
			content: `
api:
  email: ops@example.com
  password: secret
`,
		},
		{
			name: "missing password",
			content: `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
`,
		},
		{
			name: "invalid retry attempts",
			content: `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
  password: secret
retry:
  max_attempts: 0
`,
		},
		{
			name: "invalid logging level",
			content: `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
  password: secret
logging:
  level: loud
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	path := writeConfigFile(t, `
api:
  endpoint: https://admin.example.com/v1/admin
  email: ops@example.com
  password: secret
  token_lifetime_seconds: 3600
retry:
  max_attempts: 3
  initial_backoff_ms: 250
concurrency: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cc := cfg.ClientConfig()

	if cc.Endpoint != cfg.API.Endpoint {
		t.Errorf("Endpoint not propagated")
	}
	if cc.TokenLifetime != time.Hour {
		t.Errorf("TokenLifetime = %v, want 1h", cc.TokenLifetime)
	}
	if cc.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cc.Retry.MaxAttempts)
	}
	if cc.Retry.InitialBackoff != 250*time.Millisecond {
		t.Errorf("Retry.InitialBackoff = %v, want 250ms", cc.Retry.InitialBackoff)
	}
	if cc.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency = %d, want 8", cc.MaxConcurrency)
	}
}
