package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func TestLoadConfig_Defaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Chdir(t.TempDir())

	c := LoadConfig()
	if diff := cmp.Diff(defaults(), *c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(100<<20), c.MaxObjectSize())
}

func TestLoadConfig_LayerPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "core.json")
	b, err := json.Marshal(map[string]any{
		"backend":          "s3",
		"s3_bucket":        "json-bucket",
		"s3_endpoint":      "http://minio:9000",
		"janitor_interval": "10s",
		"max_object_mb":    5,
		"log_level":        "warn",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	t.Chdir(t.TempDir())
	t.Setenv("SAFEDROP_CORE_BACKEND", "memory")
	t.Setenv("SAFEDROP_CORE_DATA_DIR", "/env/data")
	t.Setenv("SAFEDROP_CORE_IDLE_TIMEOUT", "3s")
	t.Setenv("SAFEDROP_CORE_S3_ACCESS_KEY", "env-key")

	os.Args = []string{"testbin", "-c", path, "-a", ":9999", "-l", "debug"}

	c := LoadConfig()
	assert.Equal(t, ":9999", c.ListenAddr, "flags beat defaults")
	assert.Equal(t, "s3", c.Backend, "json beats env")
	assert.Equal(t, "/env/data", c.DataDir)
	assert.Equal(t, 3*time.Second, c.IdleTimeout)
	assert.Equal(t, 10*time.Second, c.JanitorInterval)
	assert.Equal(t, 5, c.MaxObjectMB)
	assert.Equal(t, "debug", c.LogLevel, "flags beat json")
	assert.Equal(t, "json-bucket", c.S3.Bucket)
	assert.Equal(t, "http://minio:9000", c.S3.BaseEndpoint)
	assert.Equal(t, "env-key", c.S3.AccessKey)
	assert.Equal(t, "us-east-1", c.S3.Region)

	opts := c.BlobOptions()
	assert.Equal(t, "s3", opts.Backend)
	assert.Equal(t, "json-bucket", opts.S3.Bucket)
}

func TestParseEnv_BadValuePanics(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SAFEDROP_CORE_MAX_OBJECT_MB", "lots")

	c := defaults()
	require.Panics(t, func() { parseEnv(&c) })
}

func TestParseJson_MissingFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-config", filepath.Join(t.TempDir(), "nope.json")}

	c := defaults()
	require.Panics(t, func() { parseJson(&c) })
}
