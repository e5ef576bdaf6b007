// Package config handles configuration for the server component:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the task tracker server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public REST API.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - AccessTokenSecret / RefreshTokenSecret: distinct HMAC keys per token type.
//   - SigningAlgorithm: HS256, HS384 or HS512.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - BcryptCost: work factor for password hashing.
//   - CORSAllowedOrigins: "*" allows any origin.
type Config struct {
	AppName                      string
	Debug                        bool
	LogLevel                     string
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	AccessTokenSecret            string
	RefreshTokenSecret           string
	SigningAlgorithm             string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	CORSAllowedOrigins           []string
	MetricsPath                  string
	ShutdownTimeout              time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are placeholders and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.AppName = "Task Manager API"
	c.Debug = false
	c.LogLevel = "info"
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "postgres://postgres:postgres@db:5432/postgres?sslmode=disable"
	c.AccessTokenSecret = "change-me-access"
	c.RefreshTokenSecret = "change-me-refresh"
	c.SigningAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.BcryptCost = 12
	c.CORSAllowedOrigins = []string{"*"}
	c.MetricsPath = "/metrics"
	c.ShutdownTimeout = 10 * time.Second
}

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// Validate reports the first setting that would make the server unsafe or
// unable to start.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("access and refresh token secrets must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if _, ok := supportedAlgorithms[strings.ToUpper(c.SigningAlgorithm)]; !ok {
		return fmt.Errorf("unsupported signing algorithm %q", c.SigningAlgorithm)
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return errors.New("token validity durations must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN must be set")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
