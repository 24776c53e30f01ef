// Package config loads and validates application settings from defaults, an
// optional config.yaml and APP_-prefixed environment variables.
package config
