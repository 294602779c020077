package config

import (
	"errors"
	"os"
	"testing"
)

var configEnv = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "INVERSION_MARKER", "ARG_TEMPLATES", "METRICS_ENABLED",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		if old, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel='info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("Expected LogFormat='console', got '%s'", cfg.LogFormat)
	}
	if cfg.InversionMarker != "!" {
		t.Errorf("Expected InversionMarker='!', got '%s'", cfg.InversionMarker)
	}
	if cfg.ArgTemplates {
		t.Error("Expected ArgTemplates=false")
	}
	if cfg.MetricsEnabled {
		t.Error("Expected MetricsEnabled=false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("INVERSION_MARKER", "~")
	t.Setenv("ARG_TEMPLATES", "true")
	t.Setenv("METRICS_ENABLED", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "staging" {
		t.Errorf("Expected AppEnv='staging', got '%s'", cfg.AppEnv)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel='debug', got '%s'", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("Expected LogFormat='json', got '%s'", cfg.LogFormat)
	}
	if cfg.InversionMarker != "~" {
		t.Errorf("Expected InversionMarker='~', got '%s'", cfg.InversionMarker)
	}
	if !cfg.ArgTemplates {
		t.Error("Expected ArgTemplates=true")
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected MetricsEnabled=true")
	}
}

func TestLoad_MissingEnvFileIsAcceptable(t *testing.T) {
	// Even if .env file doesn't exist, Load should succeed with defaults
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not fail when .env is missing: %v", err)
	}
	if cfg == nil {
		t.Fatal("Config should not be nil")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{AppEnv: "dev", LogLevel: "info", LogFormat: "console", InversionMarker: "!"}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty marker disables inversion", mutate: func(c *Config) { c.InversionMarker = "" }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantField: "LOG_LEVEL"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantField: "LOG_FORMAT"},
		{name: "marker whitespace", mutate: func(c *Config) { c.InversionMarker = "not " }, wantField: "INVERSION_MARKER"},
		{name: "prod requires json", mutate: func(c *Config) { c.AppEnv = "prod" }, wantField: "LOG_FORMAT"},
		{name: "prod with json", mutate: func(c *Config) { c.AppEnv = "prod"; c.LogFormat = "json" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}
