package config

import (
	"errors"

	"github.com/dmitrijs2005/safedrop/internal/envx"
)

const (
	EnvConfigFile = "SAFEDROP_CONFIG"

	envGRPCAddr            = "SAFEDROP_GRPC_ADDR"
	envOpsAddr             = "SAFEDROP_OPS_ADDR"
	envDatabaseDialect     = "SAFEDROP_DB_DIALECT"
	envDatabaseDSN         = "SAFEDROP_DB_DSN"
	envSecretKey           = "SAFEDROP_SECRET_KEY"
	envAccessTokenTTL      = "SAFEDROP_ACCESS_TOKEN_TTL"
	envStoreAddr           = "SAFEDROP_STORE_ADDR"
	envStoreConnectTimeout = "SAFEDROP_STORE_CONNECT_TIMEOUT"
	envStoreIdleTimeout    = "SAFEDROP_STORE_IDLE_TIMEOUT"
	envAuthRateLimit       = "SAFEDROP_AUTH_RATE"
	envAuthRateBurst       = "SAFEDROP_AUTH_BURST"
	envLogLevel            = "SAFEDROP_LOG_LEVEL"
)

// parseEnv overlays SAFEDROP_* variables, loading .env first. Malformed
// numeric or duration values panic, like malformed JSON or flags.
func parseEnv(config *Config) {
	envx.LoadDotEnv()

	envx.String(&config.EndpointAddrGRPC, envGRPCAddr)
	envx.String(&config.OpsAddr, envOpsAddr)
	envx.String(&config.DatabaseDialect, envDatabaseDialect)
	envx.String(&config.DatabaseDSN, envDatabaseDSN)
	envx.String(&config.SecretKey, envSecretKey)
	envx.String(&config.StoreAddr, envStoreAddr)
	envx.String(&config.LogLevel, envLogLevel)

	err := errors.Join(
		envx.Duration(&config.AccessTokenValidityDuration, envAccessTokenTTL),
		envx.Duration(&config.StoreConnectTimeout, envStoreConnectTimeout),
		envx.Duration(&config.StoreIdleTimeout, envStoreIdleTimeout),
		envx.Float(&config.AuthRateLimit, envAuthRateLimit),
		envx.Int(&config.AuthRateBurst, envAuthRateBurst),
	)
	if err != nil {
		panic(err)
	}
}
