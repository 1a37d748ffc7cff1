package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/safedrop/internal/flagx"
	"github.com/dmitrijs2005/safedrop/internal/timex"
)

type JsonConfig struct {
	ListenAddr      string         `json:"listen_addr"`
	Backend         string         `json:"backend"`
	DataDir         string         `json:"data_dir"`
	S3Region        string         `json:"s3_region"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Prefix        string         `json:"s3_prefix"`
	S3Endpoint      string         `json:"s3_endpoint"`
	S3AccessKey     string         `json:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key"`
	JanitorInterval timex.Duration `json:"janitor_interval"`
	IdleTimeout     timex.Duration `json:"idle_timeout"`
	MaxObjectMB     int            `json:"max_object_mb"`
	LogLevel        string         `json:"log_level"`
}

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

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.Backend, c.Backend)
	setString(&config.DataDir, c.DataDir)
	setString(&config.S3.Region, c.S3Region)
	setString(&config.S3.Bucket, c.S3Bucket)
	setString(&config.S3.Prefix, c.S3Prefix)
	setString(&config.S3.BaseEndpoint, c.S3Endpoint)
	setString(&config.S3.AccessKey, c.S3AccessKey)
	setString(&config.S3.SecretKey, c.S3SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.JanitorInterval.Duration > 0 {
		config.JanitorInterval = c.JanitorInterval.Duration
	}
	if c.IdleTimeout.Duration > 0 {
		config.IdleTimeout = c.IdleTimeout.Duration
	}
	if c.MaxObjectMB > 0 {
		config.MaxObjectMB = c.MaxObjectMB
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
