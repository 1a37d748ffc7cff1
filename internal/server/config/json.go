package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/safedrop/internal/flagx"
	"github.com/dmitrijs2005/safedrop/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both strings such as "30s" and integer nanoseconds. Absent or
// zero fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	OpsAddr                     string         `json:"ops_addr"`
	DatabaseDialect             string         `json:"database_dialect"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	StoreAddr                   string         `json:"store_addr"`
	StoreConnectTimeout         timex.Duration `json:"store_connect_timeout"`
	StoreIdleTimeout            timex.Duration `json:"store_idle_timeout"`
	AuthRateLimit               float64        `json:"auth_rate_limit"`
	AuthRateBurst               int            `json:"auth_rate_burst"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (or SAFEDROP_CONFIG) into
// config. Unreadable files and invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(EnvConfigFile)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.OpsAddr, c.OpsAddr)
	setString(&config.DatabaseDialect, c.DatabaseDialect)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.StoreAddr, c.StoreAddr)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.StoreConnectTimeout.Duration > 0 {
		config.StoreConnectTimeout = c.StoreConnectTimeout.Duration
	}
	if c.StoreIdleTimeout.Duration > 0 {
		config.StoreIdleTimeout = c.StoreIdleTimeout.Duration
	}
	if c.AuthRateLimit > 0 {
		config.AuthRateLimit = c.AuthRateLimit
	}
	if c.AuthRateBurst > 0 {
		config.AuthRateBurst = c.AuthRateBurst
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
