// Package config loads the demonstration command's runtime configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/philly/edge-permissions/internal/platform/logger"
)

// Config holds the demonstration command's environment, loaded once at
// startup and never mutated.
type Config struct {
	Environment  string `mapstructure:"APP_ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	HTTPAddr     string `mapstructure:"HTTP_ADDR"`
	JWKSEndpoint string `mapstructure:"JWKS_ENDPOINT"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
}

// LoadConfig reads .env (if present) and the process environment into a
// Config, applying defaults for everything but the JWT settings, which
// must be supplied explicitly.
func LoadConfig(bootstrapLogger *logger.BootstrapLogger) (Config, error) {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		bootstrapLogger.Info(ctx, "no .env file found, using environment variables only")
	} else {
		bootstrapLogger.Info(ctx, "loaded .env file")
	}

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "postgresql://localhost:5432/edge_permissions?sslmode=disable")
	v.SetDefault("HTTP_ADDR", ":8080")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		bootstrapLogger.Error(ctx, "failed to unmarshal configuration", "error", err)
		return Config{}, fmt.Errorf("unmarshal configuration: %w", err)
	}

	bootstrapLogger.Info(ctx, "configuration loaded",
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
		"http_addr", cfg.HTTPAddr,
	)

	if cfg.JWKSEndpoint == "" {
		err := errors.New("JWKS_ENDPOINT is required")
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}
	if cfg.JWTIssuer == "" {
		err := errors.New("JWT_ISSUER is required")
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}

	return cfg, nil
}
