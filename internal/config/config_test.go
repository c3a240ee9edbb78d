package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Read(filepath.Join(t.TempDir(), "config.json")))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize())
	assert.Equal(t, 80, cfg.Image.Quality)
	assert.Equal(t, 2, cfg.Converter.MaxAttempts)
	assert.Equal(t, "minority", cfg.Image.TurnPolicy)
	assert.Equal(t, 40_000_000, cfg.Image.MaxPixels())
	assert.Empty(t, cfg.Converter.ServiceURL)
	require.NoError(t, cfg.Validate())
}

func TestReadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server":{"port":9000},"converter":{"service_url":"http://docs:8000/convert","timeout":15}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := NewConfig()
	require.NoError(t, cfg.Read(path))

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Duration(30), cfg.Server.ReadTimeout)
	assert.Equal(t, "http://docs:8000/convert", cfg.Converter.ServiceURL)
	assert.Equal(t, time.Duration(15), cfg.Converter.Timeout)
	assert.Equal(t, 128, cfg.Image.Threshold)
}

func TestReadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err := NewConfig().Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONVERTER_SERVICE_URL=http://from-dotenv/convert\n"), 0o600))

	t.Setenv("PORT", "9191")
	t.Setenv("MAX_FILE_SIZE_MB", "5")
	t.Setenv("CONVERTER_TIMEOUT", "7")
	t.Setenv("UPLOAD_TEMP_DIR", dir)
	t.Setenv("LOG_LEVEL", "debug")

	t.Cleanup(func() { os.Unsetenv("CONVERTER_SERVICE_URL") })
	cfg := NewConfig()
	require.NoError(t, cfg.LoadEnv(envFile))

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, int64(5), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, time.Duration(7), cfg.Converter.Timeout)
	assert.Equal(t, dir, cfg.Upload.TempDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://from-dotenv/convert", cfg.Converter.ServiceURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvMissingDotenvIsFine(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.LoadEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("PORT", "eighty")
	err := NewConfig().LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero file size", func(c *Config) { c.Upload.MaxFileSizeMB = 0 }},
		{"quality above 100", func(c *Config) { c.Image.Quality = 101 }},
		{"alpha max too big", func(c *Config) { c.Image.AlphaMax = 2 }},
		{"bad service url", func(c *Config) { c.Converter.ServiceURL = "not a url" }},
		{"no attempts", func(c *Config) { c.Converter.MaxAttempts = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"unknown turn policy", func(c *Config) { c.Image.TurnPolicy = "sideways" }},
		{"no pixel budget", func(c *Config) { c.Image.MaxMegapixels = 0 }},
		{"relay outlives write timeout", func(c *Config) {
			c.Converter.ServiceURL = "http://converter:8000/convert"
			c.Converter.Timeout = 60
			c.Converter.MaxAttempts = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRelayBudget(t *testing.T) {
	cfg := NewConfig()
	cfg.Converter.ServiceURL = "http://converter:8000/convert"
	require.NoError(t, cfg.Validate())

	// 2 x 55s plus one 300ms backoff with jitter headroom.
	assert.Equal(t, 110*time.Second+315*time.Millisecond, cfg.RelayWorstCase())
	assert.Less(t, cfg.RelayWorstCase(), cfg.Server.WriteTimeout*time.Second)
	assert.Equal(t, 119*time.Second, cfg.RelayDeadline())

	cfg.Server.WriteTimeout = 1
	assert.Equal(t, 500*time.Millisecond, cfg.RelayDeadline())

	cfg.Server.WriteTimeout = 0
	assert.Zero(t, cfg.RelayDeadline())
	require.NoError(t, cfg.Validate())
}
