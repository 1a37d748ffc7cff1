package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	gateway := []string{"-a", "-o", "-x", "-d", "-s", "-t", "-k", "-l"}

	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "gateway flags kept, config flag left to the json layer",
			args:         []string{"-c", "gw.json", "-a", ":50051", "-k", "store:8080"},
			allowedFlags: gateway,
			want:         []string{"-a", ":50051", "-k", "store:8080"},
		},
		{
			name:         "json layer sees only its own flag",
			args:         []string{"-a", ":50051", "--config=gw.json", "-l", "debug"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=gw.json"},
		},
		{
			name:         "equals form of an allowed flag",
			args:         []string{"-d=file:ledger.db", "-x", "sqlite"},
			allowedFlags: gateway,
			want:         []string{"-d=file:ledger.db", "-x", "sqlite"},
		},
		{
			name:         "core store flags are not gateway flags",
			args:         []string{"-b", "s3", "-a", "127.0.0.1:8080"},
			allowedFlags: []string{"-a", "-b", "-d", "-l"},
			want:         []string{"-b", "s3", "-a", "127.0.0.1:8080"},
		},
		{
			name:         "dangling flag at the end",
			args:         []string{"-s"},
			allowedFlags: gateway,
			want:         []string{"-s"},
		},
		{
			name:         "next dash token is never a value",
			args:         []string{"-k", "-l", "warn"},
			allowedFlags: gateway,
			want:         []string{"-k", "-l", "warn"},
		},
		{
			name:         "positional arguments dropped",
			args:         []string{"serve", "now"},
			allowedFlags: gateway,
			want:         []string{},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-l", "info", "-l", "debug"},
			allowedFlags: gateway,
			want:         []string{"-l", "info", "-l", "debug"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: gateway,
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func Test_jsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", JsonConfigFlags())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", JsonConfigFlags())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", JsonConfigFlags())
	})
}

func TestConfigFile_FlagWinsOverEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Setenv("SAFEDROP_TEST_CONFIG", "/from/env.json")

	os.Args = []string{"testbin"}
	assert.Equal(t, "/from/env.json", ConfigFile("SAFEDROP_TEST_CONFIG"))

	os.Args = []string{"testbin", "-c", "/from/flag.json"}
	assert.Equal(t, "/from/flag.json", ConfigFile("SAFEDROP_TEST_CONFIG"))
}
