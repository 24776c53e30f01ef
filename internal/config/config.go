package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Pagination PaginationConfig `mapstructure:"pagination" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache" validate:"required"`
	Mail       MailConfig       `mapstructure:"mail" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects and configures the entity store backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
	// AutoMigrate applies embedded migrations on startup when using postgres.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains token signing and lifetime settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	SessionTokenLifetimeMinutes int    `mapstructure:"session_token_lifetime_minutes" validate:"required,gt=0"`
	ResetTokenLifetimeMinutes   int    `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
}

// PaginationConfig bounds collection pages.
type PaginationConfig struct {
	Limit int `mapstructure:"limit" validate:"required,gt=0,lte=1000"`
}

// CacheConfig controls the collection response cache.
type CacheConfig struct {
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	Namespace  string `mapstructure:"namespace" validate:"required"`
}

// MailConfig controls the asynchronous mail dispatcher.
type MailConfig struct {
	WorkerCount int    `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int    `mapstructure:"queue_size" validate:"required,gt=0"`
	From        string `mapstructure:"from" validate:"required,email"`
	ResetURL    string `mapstructure:"reset_url" validate:"required,url"`
}

// RateLimitConfig controls per-client request throttling. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst             int `mapstructure:"burst" validate:"gte=0"`
}
