package config

import "github.com/dmitrijs2005/safedrop/internal/envx"

const (
	EnvConfigFile = "SAFEDROP_CLIENT_CONFIG"

	envServerAddr  = "SAFEDROP_CLIENT_SERVER"
	envCallTimeout = "SAFEDROP_CLIENT_TIMEOUT"
	envDownloadDir = "SAFEDROP_CLIENT_DOWNLOAD_DIR"
)

func parseEnv(cfg *Config) {
	envx.LoadDotEnv()

	envx.String(&cfg.ServerEndpointAddr, envServerAddr)
	envx.String(&cfg.DownloadDir, envDownloadDir)
	if err := envx.Duration(&cfg.CallTimeout, envCallTimeout); err != nil {
		panic(err)
	}
}
