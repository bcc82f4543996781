// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// DatabaseMaxConns caps the pgx pool size.
	DatabaseMaxConns int32 `env:"DATABASE_MAX_CONNS" envDefault:"25"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Optional: an in-process cache is used when empty.
	RedisURL              string        `env:"REDIS_URL"`
	RedisPoolSize         int           `env:"REDIS_POOL_SIZE"         envDefault:"10"`
	RedisOperationTimeout time.Duration `env:"REDIS_OPERATION_TIMEOUT" envDefault:"500ms"`

	// Token signing. The secret is process-wide and never rotated at runtime.
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty,unset"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"personapi"`
	JWTTTL    time.Duration `env:"JWT_TTL"    envDefault:"1h"`

	// BcryptCost is the work factor for password hashing.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// RoutePolicyPath points to a YAML route protection table. The built-in table is used when empty.
	RoutePolicyPath string `env:"ROUTE_POLICY_PATH"`

	// Identity cache used by the request authenticator.
	IdentityCacheTTL  time.Duration `env:"IDENTITY_CACHE_TTL"  envDefault:"1m"`
	IdentityCacheSize int           `env:"IDENTITY_CACHE_SIZE" envDefault:"1024"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.IdentityCacheTTL < 0 {
		return nil, fmt.Errorf("config: IDENTITY_CACHE_TTL must not be negative, got %s", cfg.IdentityCacheTTL)
	}
	if cfg.DatabaseMaxConns <= 0 {
		return nil, fmt.Errorf("config: DATABASE_MAX_CONNS must be positive, got %d", cfg.DatabaseMaxConns)
	}
	if cfg.RedisPoolSize <= 0 || cfg.RedisOperationTimeout <= 0 {
		return nil, fmt.Errorf("config: REDIS_POOL_SIZE and REDIS_OPERATION_TIMEOUT must be positive")
	}
	if cfg.IdentityCacheSize <= 0 {
		return nil, fmt.Errorf("config: IDENTITY_CACHE_SIZE must be positive, got %d", cfg.IdentityCacheSize)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LogLevel returns the minimum log level. DEBUG is ignored in production.
func (c *Config) LogLevel() slog.Level {
	if c.Debug && !c.IsProduction() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisURL) != ""
}

// AllowedOrigins returns the trimmed, non-empty entries of EXTRA_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
