package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"ops_addr":                       ":9999",
		"database_dialect":               "postgres",
		"database_dsn":                   "postgres://x",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "10m",
		"store_addr":                     "store:8080",
		"store_connect_timeout":          "1s",
		"store_idle_timeout":             2000000000,
		"auth_rate_limit":                1.5,
		"auth_rate_burst":                4,
		"log_level":                      "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, ":9999", cfg.OpsAddr)
		assert.Equal(t, "postgres", cfg.DatabaseDialect)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "store:8080", cfg.StoreAddr)
		assert.Equal(t, time.Second, cfg.StoreConnectTimeout)
		assert.Equal(t, 2*time.Second, cfg.StoreIdleTimeout)
		assert.Equal(t, 1.5, cfg.AuthRateLimit)
		assert.Equal(t, 4, cfg.AuthRateBurst)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("env variable names the file", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv(EnvConfigFile, pathFlag)

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "store:8080", cfg.StoreAddr)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "warn"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := defaults()
		parseJson(&cfg)

		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "127.0.0.1:8080", cfg.StoreAddr)
		assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := defaults()
		parseJson(&cfg)

		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
