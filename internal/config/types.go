package config

// Config is the top-level fleetctl configuration.
type Config struct {
	API         APIConfig     `mapstructure:"api"`
	Retry       RetryConfig   `mapstructure:"retry"`
	Cache       CacheConfig   `mapstructure:"cache"`
	Concurrency int           `mapstructure:"concurrency"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// APIConfig identifies the admin API target and account.
type APIConfig struct {
	Endpoint             string `mapstructure:"endpoint"`
	Email                string `mapstructure:"email"`
	Password             string `mapstructure:"password"`
	TokenLifetimeSeconds int    `mapstructure:"token_lifetime_seconds"`
}

// RetryConfig bounds retry behavior for every API operation.
type RetryConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	InitialBackoffMS int `mapstructure:"initial_backoff_ms"`
}

// CacheConfig enables the Redis-backed device-query cache when RedisAddr
// is set.
type CacheConfig struct {
	RedisAddr  string `mapstructure:"redis_addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
