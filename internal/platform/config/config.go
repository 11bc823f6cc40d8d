// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into strongly-typed
Go structs, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.

The gateway and the user service each load their own schema; the shared JWT
secret is the only value both must agree on.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # User Service Schema

// Config holds all runtime configuration for the user/admin service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8081"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — stores volatile password-reset tokens.
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret is the base64-encoded HS256 signing key shared with the gateway.
	JWTSecret string `env:"JWT_SECRET,required"`

	// Token lifetimes. The short access TTL bounds the revocation window;
	// all revocation guarantees flow through refresh tokens.
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
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

// # Gateway Schema

// GatewayConfig holds all runtime configuration for the routing gateway.
type GatewayConfig struct {

	// Server settings
	ServerPort  string `env:"GATEWAY_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// JWTSecret is the base64-encoded HS256 signing key shared with the user service.
	JWTSecret string `env:"JWT_SECRET,required"`

	// Backend registry: logical service name -> base URL. In production these
	// point at the load balancer's virtual hosts for each service.
	UserServiceURL  string `env:"USER_SERVICE_URL,required"`
	EventServiceURL string `env:"EVENT_SERVICE_URL,required"`
	FileServiceURL  string `env:"FILE_SERVICE_URL,required"`
}

// LoadGateway parses environment variables into a [GatewayConfig] struct.
func LoadGateway() (*GatewayConfig, error) {
	cfg := &GatewayConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the gateway is running in development mode.
func (c *GatewayConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the gateway is running in production mode.
func (c *GatewayConfig) IsProduction() bool {
	return c.Environment == "production"
}
