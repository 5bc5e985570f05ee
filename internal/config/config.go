// Package config loads server configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	GenAIAPIURL         string `mapstructure:"GENAI_API_URL"`
	GenAIAPIKey         string `mapstructure:"GENAI_API_KEY"`
	GenAIModel          string `mapstructure:"GENAI_MODEL"`
	GenAITimeoutSeconds int    `mapstructure:"GENAI_TIMEOUT_SECONDS"`

	SeedPatientCount int   `mapstructure:"SEED_PATIENT_COUNT"`
	Seed             int64 `mapstructure:"SEED"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("GENAI_API_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GENAI_API_KEY", "")
	v.SetDefault("GENAI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GENAI_TIMEOUT_SECONDS", 60)
	v.SetDefault("SEED_PATIENT_COUNT", 12)
	v.SetDefault("SEED", 1)

	// A missing .env is fine; the environment still applies.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for _, key := range []string{
		"PORT", "ENV", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"GENAI_API_URL", "GENAI_API_KEY", "GENAI_MODEL", "GENAI_TIMEOUT_SECONDS",
		"SEED_PATIENT_COUNT", "SEED",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// CORS_ORIGINS arrives as a comma-separated string from the environment.
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		parts := strings.Split(cfg.CORSOrigins[0], ",")
		cfg.CORSOrigins = cfg.CORSOrigins[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, p)
			}
		}
	}

	return &cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UseGenAI reports whether the server should bootstrap from the generative
// AI service rather than the local seeded source.
func (c *Config) UseGenAI() bool {
	return c.GenAIAPIKey != "" || c.IsProduction()
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if c.GenAITimeoutSeconds <= 0 {
		return fmt.Errorf("GENAI_TIMEOUT_SECONDS must be positive")
	}
	if c.UseGenAI() {
		if c.GenAIAPIURL == "" {
			return fmt.Errorf("GENAI_API_URL must be set")
		}
		if c.GenAIModel == "" {
			return fmt.Errorf("GENAI_MODEL must be set")
		}
	}
	if c.SeedPatientCount <= 0 {
		return fmt.Errorf("SEED_PATIENT_COUNT must be positive")
	}
	return nil
}
