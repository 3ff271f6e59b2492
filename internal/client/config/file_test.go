package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	jsonPath := writeTempFile(t, "cfg.json", `{
		"server_endpoint_addr": "www.example:9000",
		"online_check_interval": "10s",
		"safety_timeout": 2000000000,
		"loader_max_retries": 0,
		"log_format": "text"
	}`)

	tomlPath := writeTempFile(t, "cfg.toml", `
server_endpoint_addr = "toml.example:9000"
splash_min_duration = "1s"
loader_workers = 8
breaker_open_timeout = "30s"
`)

	t.Run("json overrides present keys only", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", jsonPath}

		cfg := defaults()
		parseFile(cfg)

		want := defaults()
		want.ServerEndpointAddr = "www.example:9000"
		want.OnlineCheckInterval = 10 * time.Second
		want.SafetyTimeout = 2 * time.Second
		want.LoaderMaxRetries = 0
		want.LogFormat = "text"
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("toml by extension", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", tomlPath}

		cfg := defaults()
		parseFile(cfg)

		want := defaults()
		want.ServerEndpointAddr = "toml.example:9000"
		want.SplashMinDuration = time.Second
		want.LoaderWorkers = 8
		want.BreakerOpenTimeout = 30 * time.Second
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no file flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ServerEndpointAddr: "defaults:1234", OnlineCheckInterval: 42 * time.Second}
		parseFile(cfg)

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", writeTempFile(t, "bad.json", `{ this is not valid json`)}
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("invalid duration → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", writeTempFile(t, "bad.toml", `safety_timeout = "soon"`)}
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(t.TempDir(), "nope.json")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
