package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultTimeoutMs, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetVerbose())
	assert.Equal(t, "console", cfg.Output)
	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.Equal(t, DefaultStore, cfg.Store)
	assert.NoError(t, cfg.Validate())
}

func TestFindAndLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	content := `collection: api.postman_collection.json
timeout: 5000
validateSSL: false
delay: 250
headers:
  X-Team: qa
server:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".colrun.yaml"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "api.postman_collection.json", cfg.Collection)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetFollowRedirects())
	assert.Equal(t, 250, cfg.Delay)
	assert.Equal(t, "qa", cfg.Headers["X-Team"])
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Len(t, cfg.Server.CORSOrigins, 2)
	assert.Equal(t, DefaultScriptTimeoutMs, cfg.ScriptTimeout)
}

func TestFindAndLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"output": "json", "verbose": true, "server": {"corsOrigins": ["https://ui.test"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colrun.json"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.GetVerbose())
	assert.Equal(t, []string{"https://ui.test"}, cfg.Server.CORSOrigins)
}

func TestFindAndLoadConfigTOML(t *testing.T) {
	dir := t.TempDir()
	content := `collection = "api.json"
followRedirects = false
logLevel = "debug"

[headers]
X-Team = "qa"

[server]
addr = "127.0.0.1:4000"
corsOrigins = ["*"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colrun.toml"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "api.json", cfg.Collection)
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "qa", cfg.Headers["X-Team"])
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DefaultTimeoutMs, cfg.Timeout)
}

func TestSaveConfigTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colrun.toml")
	cfg := DefaultConfig()
	cfg.Collection = "api.json"
	cfg.Delay = 100

	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFindAndLoadConfigMissing(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "timeout: [1"},
		{"bad output", "output: html"},
		{"negative delay", "delay: -5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "colrun.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	merged := base.Merge(&Config{
		Timeout:     100,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "2"},
		Store:       "sqlite://envs.db",
	})

	assert.Equal(t, 100, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, "sqlite://envs.db", merged.Store)

	assert.Equal(t, map[string]string{"A": "1"}, base.Headers)
	assert.True(t, base.GetValidateSSL())
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colrun.yaml")
	cfg := DefaultConfig()
	cfg.Proxy = "http://proxy.test:8080"

	require.NoError(t, cfg.SaveConfig(path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}
