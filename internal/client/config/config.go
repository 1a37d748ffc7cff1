package config

import "time"

// Config holds runtime settings for the SafeDrop CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gateway gRPC endpoint.
//   - CallTimeout: deadline for unary calls; streaming transfers are not bounded.
//   - DownloadDir: where downloaded attachments are written.
type Config struct {
	ServerEndpointAddr string
	CallTimeout        time.Duration
	DownloadDir        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.CallTimeout = 10 * time.Second
	c.DownloadDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment, JSON (if present) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
