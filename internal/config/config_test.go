package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://moviebox.ng", cfg.Site.URL)
	assert.Equal(t, "https://moviebox.ng/wefeed-h5-bff/web/subject/download", cfg.Site.APIURL)
	assert.Equal(t, SearchModeForm, cfg.Search.Mode)
	assert.Equal(t, "input.pc-search-input", cfg.Search.InputSelector)
	assert.Equal(t, "div.pc-card-btn", cfg.Search.ResultSelector)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"--no-sandbox", "--disable-dev-shm-usage"}, cfg.Browser.Args)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, 0, cfg.Client.Retries)
	assert.Equal(t, 5500, cfg.Server.Port)
	assert.True(t, cfg.Server.LegacyErrorStatus)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moviebox.yaml")
	content := `
site:
  url: http://example.test
search:
  mode: url
server:
  port: 8081
  legacy_error_status: false
client:
  retries: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.test", cfg.Site.URL)
	assert.Equal(t, SearchModeURL, cfg.Search.Mode)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.False(t, cfg.Server.LegacyErrorStatus)
	assert.Equal(t, 2, cfg.Client.Retries)
	// untouched keys keep their defaults
	assert.Equal(t, "div.pc-card-btn", cfg.Search.ResultSelector)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_SEARCH_RESULT_SELECTOR", "a.card")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "a.card", cfg.Search.ResultSelector)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   time.Duration
		wantOK bool
	}{
		{"empty uses default", "", 5 * time.Second, true},
		{"valid", "250ms", 250 * time.Millisecond, true},
		{"invalid", "soon", 5 * time.Second, false},
		{"negative", "-1s", 5 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDuration(tt.raw, 5*time.Second)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNewLogger_JSONAndLevel(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger, closer := NewLogger(cfg, &buf)
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger, _ := NewLogger(cfg, &buf)
	logger.Info().Msg("visible")

	out := buf.String()
	assert.Contains(t, out, "Invalid log level")
	assert.True(t, strings.Contains(out, "visible"))
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviebox.log")
	cfg := &Config{}
	cfg.Log.Format = "json"
	cfg.Log.File = path

	var buf bytes.Buffer
	logger, closer := NewLogger(cfg, &buf)
	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
