// Package config handles configuration for the gateway, layering defaults,
// environment variables (optionally from .env), a JSON file and
// command-line flags, in that order.
package config

import "time"

// Config holds runtime settings for the SafeDrop gateway.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - OpsAddr: bind address for /metrics and /health probes; empty disables it.
//   - DatabaseDialect / DatabaseDSN: ledger database ("sqlite" or "postgres").
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use defaults in prod.
//   - AccessTokenValidityDuration: access token lifetime.
//   - StoreAddr: host:port of the Core Store.
//   - StoreConnectTimeout / StoreIdleTimeout: Core Store I/O bounds.
//   - AuthRateLimit / AuthRateBurst: per-peer limit on register and login.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrGRPC            string
	OpsAddr                     string
	DatabaseDialect             string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	StoreAddr                   string
	StoreConnectTimeout         time.Duration
	StoreIdleTimeout            time.Duration
	AuthRateLimit               float64
	AuthRateBurst               int
	LogLevel                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.OpsAddr = ":9090"
	c.DatabaseDialect = "sqlite"
	c.DatabaseDSN = "safedrop.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.StoreAddr = "127.0.0.1:8080"
	c.StoreConnectTimeout = 5 * time.Second
	c.StoreIdleTimeout = 30 * time.Second
	c.AuthRateLimit = 5
	c.AuthRateBurst = 10
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying the
// environment, an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
