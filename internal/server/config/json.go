package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// use timex.Duration so both "30m" and integer nanoseconds are accepted.
type JsonConfig struct {
	AppName                      string         `json:"app_name"`
	Debug                        bool           `json:"debug"`
	LogLevel                     string         `json:"log_level"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	AccessTokenSecret            string         `json:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret"`
	SigningAlgorithm             string         `json:"signing_algorithm"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	MetricsPath                  string         `json:"metrics_path"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file keep whatever the Config already holds.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := fromConfig(config)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func fromConfig(config *Config) *JsonConfig {
	return &JsonConfig{
		AppName:                      config.AppName,
		Debug:                        config.Debug,
		LogLevel:                     config.LogLevel,
		EndpointAddrHTTP:             config.EndpointAddrHTTP,
		EndpointAddrGRPC:             config.EndpointAddrGRPC,
		DatabaseDSN:                  config.DatabaseDSN,
		AccessTokenSecret:            config.AccessTokenSecret,
		RefreshTokenSecret:           config.RefreshTokenSecret,
		SigningAlgorithm:             config.SigningAlgorithm,
		AccessTokenValidityDuration:  timex.Duration{Duration: config.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: config.RefreshTokenValidityDuration},
		BcryptCost:                   config.BcryptCost,
		CORSAllowedOrigins:           config.CORSAllowedOrigins,
		MetricsPath:                  config.MetricsPath,
		ShutdownTimeout:              timex.Duration{Duration: config.ShutdownTimeout},
	}
}

func (c *JsonConfig) apply(config *Config) {
	config.AppName = c.AppName
	config.Debug = c.Debug
	config.LogLevel = c.LogLevel
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.AccessTokenSecret = c.AccessTokenSecret
	config.RefreshTokenSecret = c.RefreshTokenSecret
	config.SigningAlgorithm = c.SigningAlgorithm
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	config.BcryptCost = c.BcryptCost
	config.CORSAllowedOrigins = c.CORSAllowedOrigins
	config.MetricsPath = c.MetricsPath
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
}
