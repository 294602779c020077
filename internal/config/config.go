// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv          string // Application environment (dev, staging, prod)
	LogLevel        string // zerolog level name (debug, info, warn, error)
	LogFormat       string // Log output format (console or json)
	InversionMarker string // Prefix that inverts an operator, e.g. "!" in "!eq"
	ArgTemplates    bool   // Resolve {inventory.*} / {plugin_data.*} placeholders in args
	MetricsEnabled  bool   // Dump Prometheus metrics after an evaluation run
}

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Returns a Config struct with all values populated (either from env or defaults).
//
// Load does not validate; call Validate before use.
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = viperInstance.ReadInConfig()    // Ignore error - .env is optional
	viperInstance.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(viperInstance)

	return &Config{
		AppEnv:          viperInstance.GetString("APP_ENV"),
		LogLevel:        strings.ToLower(viperInstance.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(viperInstance.GetString("LOG_FORMAT")),
		InversionMarker: viperInstance.GetString("INVERSION_MARKER"),
		ArgTemplates:    viperInstance.GetBool("ARG_TEMPLATES"),
		MetricsEnabled:  viperInstance.GetBool("METRICS_ENABLED"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("INVERSION_MARKER", "!")
	v.SetDefault("ARG_TEMPLATES", false)
	v.SetDefault("METRICS_ENABLED", false)
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

var validLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "fatal": {}, "panic": {}, "disabled": {},
}

// Validate checks the configuration and returns the first failure.
//
// Validation Rules:
//  1. LogLevel must be a zerolog level name
//  2. LogFormat must be "console" or "json"
//  3. InversionMarker must not contain whitespace, since op tokens are trimmed
//  4. In production (APP_ENV=prod), LogFormat must be "json"
func (c *Config) Validate() error {
	if _, ok := validLogLevels[c.LogLevel]; !ok {
		return ValidationError{
			Field:   "LOG_LEVEL",
			Message: fmt.Sprintf("unknown level '%s'", c.LogLevel),
		}
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: fmt.Sprintf("must be 'console' or 'json', got '%s'", c.LogFormat),
		}
	}

	if strings.ContainsAny(c.InversionMarker, " \t\r\n") {
		return ValidationError{
			Field:   "INVERSION_MARKER",
			Message: "marker must not contain whitespace",
		}
	}

	if (c.AppEnv == "prod" || c.AppEnv == "production") && c.LogFormat != "json" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: "structured json logs are required in production",
		}
	}

	return nil
}
