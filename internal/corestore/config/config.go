// Package config configures the development Core Store. Layers are applied
// in the same order as for the gateway: defaults, environment (and .env),
// JSON file, command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/safedrop/internal/corestore/blob"
)

type Config struct {
	ListenAddr      string
	Backend         string
	DataDir         string
	S3              blob.S3Config
	JanitorInterval time.Duration
	IdleTimeout     time.Duration
	MaxObjectMB     int
	LogLevel        string
}

func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:8080"
	c.Backend = blob.BackendFS
	c.DataDir = "corestore-data"
	c.S3 = blob.S3Config{Region: "us-east-1", Bucket: "safedrop"}
	c.JanitorInterval = time.Minute
	c.IdleTimeout = 30 * time.Second
	c.MaxObjectMB = 100
	c.LogLevel = "info"
}

// MaxObjectSize is the largest accepted upload, tag included, in bytes.
func (c *Config) MaxObjectSize() int64 {
	return int64(c.MaxObjectMB) << 20
}

func (c *Config) BlobOptions() blob.Options {
	return blob.Options{Backend: c.Backend, Dir: c.DataDir, S3: c.S3}
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
