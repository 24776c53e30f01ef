package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// APP_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "APP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.reset_token_lifetime_minutes", 60)

	v.SetDefault("pagination.limit", 100)

	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.namespace", "api_v2_collection_cache")

	v.SetDefault("mail.worker_count", 2)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.from", "no-reply@example.com")
	v.SetDefault("mail.reset_url", "http://localhost:3000/reset-password")

	v.SetDefault("rate_limit.requests_per_minute", 300)
	v.SetDefault("rate_limit.burst", 50)
}

// Load reads defaults, then an optional config.yaml from the working
// directory, then APP_-prefixed environment variables, and validates the
// result. Later sources win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
