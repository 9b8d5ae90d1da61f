// Package config loads fleetctl configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fleetops/fleet-admin-client/pkg/client"
)

// Load loads the configuration from the given file, or from the standard
// locations when configPath is empty. Environment variables with a FLEET_
// prefix override file values (e.g. FLEET_API_PASSWORD); a missing config
// file is not an error as long as validation passes.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fleetctl")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".fleetctl"))
		}
		v.AddConfigPath("/etc/fleetctl/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Required keys get empty
// defaults so environment-only configuration reaches Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.endpoint", "")
	v.SetDefault("api.email", "")
	v.SetDefault("api.password", "")
	v.SetDefault("api.token_lifetime_seconds", 86400)

	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff_ms", 0)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl_seconds", 60)

	v.SetDefault("concurrency", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint is required")
	}
	if cfg.API.Email == "" {
		return fmt.Errorf("api.email is required")
	}
	if cfg.API.Password == "" {
		return fmt.Errorf("api.password is required")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// ClientConfig converts the file configuration into a client configuration.
// The Redis client, when cache.redis_addr is set, is attached by the caller.
func (c *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig(c.API.Endpoint, c.API.Email, c.API.Password)
	cc.TokenLifetime = time.Duration(c.API.TokenLifetimeSeconds) * time.Second
	cc.Retry.MaxAttempts = c.Retry.MaxAttempts
	cc.Retry.InitialBackoff = time.Duration(c.Retry.InitialBackoffMS) * time.Millisecond
	cc.MaxConcurrency = c.Concurrency
	cc.CacheTTL = time.Duration(c.Cache.TTLSeconds) * time.Second
	return cc
}
