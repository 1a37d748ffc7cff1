package config

import (
	"errors"

	"github.com/dmitrijs2005/safedrop/internal/envx"
)

const (
	EnvConfigFile = "SAFEDROP_CORE_CONFIG"

	envListenAddr      = "SAFEDROP_CORE_ADDR"
	envBackend         = "SAFEDROP_CORE_BACKEND"
	envDataDir         = "SAFEDROP_CORE_DATA_DIR"
	envS3Region        = "SAFEDROP_CORE_S3_REGION"
	envS3Bucket        = "SAFEDROP_CORE_S3_BUCKET"
	envS3Prefix        = "SAFEDROP_CORE_S3_PREFIX"
	envS3Endpoint      = "SAFEDROP_CORE_S3_ENDPOINT"
	envS3AccessKey     = "SAFEDROP_CORE_S3_ACCESS_KEY"
	envS3SecretKey     = "SAFEDROP_CORE_S3_SECRET_KEY"
	envJanitorInterval = "SAFEDROP_CORE_JANITOR_INTERVAL"
	envIdleTimeout     = "SAFEDROP_CORE_IDLE_TIMEOUT"
	envMaxObjectMB     = "SAFEDROP_CORE_MAX_OBJECT_MB"
	envLogLevel        = "SAFEDROP_CORE_LOG_LEVEL"
)

func parseEnv(config *Config) {
	envx.LoadDotEnv()

	envx.String(&config.ListenAddr, envListenAddr)
	envx.String(&config.Backend, envBackend)
	envx.String(&config.DataDir, envDataDir)
	envx.String(&config.S3.Region, envS3Region)
	envx.String(&config.S3.Bucket, envS3Bucket)
	envx.String(&config.S3.Prefix, envS3Prefix)
	envx.String(&config.S3.BaseEndpoint, envS3Endpoint)
	envx.String(&config.S3.AccessKey, envS3AccessKey)
	envx.String(&config.S3.SecretKey, envS3SecretKey)
	envx.String(&config.LogLevel, envLogLevel)

	err := errors.Join(
		envx.Duration(&config.JanitorInterval, envJanitorInterval),
		envx.Duration(&config.IdleTimeout, envIdleTimeout),
		envx.Int(&config.MaxObjectMB, envMaxObjectMB),
	)
	if err != nil {
		panic(err)
	}
}
