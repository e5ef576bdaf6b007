package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envConfig mirrors the environment variables existing deployments already
// export. Keys are the lower-cased variable names; nil means unset.
type envConfig struct {
	DatabaseURL        *string `mapstructure:"database_url"`
	AccessSecret       *string `mapstructure:"jwt_secret_key"`
	RefreshSecret      *string `mapstructure:"jwt_refresh_secret_key"`
	Algorithm          *string `mapstructure:"jwt_algorithm"`
	AccessMinutes      *int    `mapstructure:"access_token_expire_minutes"`
	RefreshDays        *int    `mapstructure:"refresh_token_expire_days"`
	AppName            *string `mapstructure:"app_name"`
	Debug              *bool   `mapstructure:"debug"`
	LogLevel           *string `mapstructure:"log_level"`
	HTTPAddr           *string `mapstructure:"http_addr"`
	GRPCAddr           *string `mapstructure:"grpc_addr"`
	BcryptCost         *int    `mapstructure:"bcrypt_cost"`
	CORSAllowedOrigins *string `mapstructure:"cors_allowed_origins"`
}

var envKeys = []string{
	"database_url", "jwt_secret_key", "jwt_refresh_secret_key", "jwt_algorithm",
	"access_token_expire_minutes", "refresh_token_expire_days", "app_name",
	"debug", "log_level", "http_addr", "grpc_addr", "bcrypt_cost",
	"cors_allowed_origins",
}

// parseEnv overlays values from environment variables that are set and
// non-empty. Malformed numbers and booleans are reported instead of silently
// ignored.
func parseEnv(config *Config) error {
	v := viper.New()
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return err
		}
	}

	var ec envConfig
	if err := v.Unmarshal(&ec); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	setString := func(src *string, dst *string) {
		if src != nil {
			*dst = *src
		}
	}

	setString(ec.DatabaseURL, &config.DatabaseDSN)
	setString(ec.AccessSecret, &config.AccessTokenSecret)
	setString(ec.RefreshSecret, &config.RefreshTokenSecret)
	setString(ec.Algorithm, &config.SigningAlgorithm)
	setString(ec.AppName, &config.AppName)
	setString(ec.LogLevel, &config.LogLevel)
	setString(ec.HTTPAddr, &config.EndpointAddrHTTP)
	setString(ec.GRPCAddr, &config.EndpointAddrGRPC)

	if ec.Debug != nil {
		config.Debug = *ec.Debug
	}
	if ec.AccessMinutes != nil {
		config.AccessTokenValidityDuration = time.Duration(*ec.AccessMinutes) * time.Minute
	}
	if ec.RefreshDays != nil {
		config.RefreshTokenValidityDuration = time.Duration(*ec.RefreshDays) * 24 * time.Hour
	}
	if ec.BcryptCost != nil {
		config.BcryptCost = *ec.BcryptCost
	}
	if ec.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = splitList(*ec.CORSAllowedOrigins)
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
