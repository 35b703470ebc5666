package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0, cfg.Signals.Base)
	assert.False(t, cfg.Navigation.FollowNew)
	assert.True(t, cfg.Navigation.MarkReadOnLeave)
	assert.Equal(t, DefaultTextTemplate, cfg.Render.TextTemplate)
	assert.Equal(t, DefaultMaxLength, cfg.Render.MaxLength)
	assert.True(t, cfg.Render.EscapeMarkup)
	assert.Equal(t, "glance", cfg.Server.Name)
	assert.Equal(t, DefaultCapabilities, cfg.Server.Capabilities)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/glance.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glance.toml")

	content := `
[log]
level = "debug"

[signals]
base = 8

[navigation]
follow_new = true
mark_read_on_leave = false

[render]
text_template = "{{.Summary}}"
max_length = 40
escape_markup = false

[render.app_icons]
firefox = "browser"
Slack = "chat"

[server]
capabilities = ["body"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Signals.Base)
	assert.True(t, cfg.Navigation.FollowNew)
	assert.False(t, cfg.Navigation.MarkReadOnLeave)
	assert.Equal(t, "{{.Summary}}", cfg.Render.TextTemplate)
	assert.Equal(t, 40, cfg.Render.MaxLength)
	assert.False(t, cfg.Render.EscapeMarkup)
	assert.Equal(t, "browser", cfg.Render.AppIcons["firefox"])
	assert.Equal(t, "chat", cfg.Render.AppIcons["Slack"])
	assert.Equal(t, []string{"body"}, cfg.Server.Capabilities)

	// Untouched sections keep defaults
	assert.Equal(t, DefaultTooltipLimit, cfg.Render.TooltipLimit)
	assert.Equal(t, "glance", cfg.Server.Name)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glance.toml")
	require.NoError(t, os.WriteFile(path, []byte("[signals\nbase = "), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_ValidationFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glance.toml")
	require.NoError(t, os.WriteFile(path, []byte("[signals]\nbase = 40\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signals.base")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "highest base", modify: func(c *Config) { c.Signals.Base = 27 }},
		{name: "base too high", modify: func(c *Config) { c.Signals.Base = 28 }, wantErr: "signals.base"},
		{name: "negative base", modify: func(c *Config) { c.Signals.Base = -1 }, wantErr: "signals.base"},
		{name: "bad level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log level"},
		{name: "empty template", modify: func(c *Config) { c.Render.TextTemplate = "  " }, wantErr: "text_template"},
		{name: "broken template", modify: func(c *Config) { c.Render.TextTemplate = "{{.Summary" }, wantErr: "text_template"},
		{name: "negative max length", modify: func(c *Config) { c.Render.MaxLength = -1 }, wantErr: "max_length"},
		{name: "negative tooltip limit", modify: func(c *Config) { c.Render.TooltipLimit = -5 }, wantErr: "tooltip_limit"},
		{name: "empty server name", modify: func(c *Config) { c.Server.Name = "" }, wantErr: "server.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Log.Level = tt.level
		level, err := cfg.LogLevel()
		require.NoError(t, err)
		assert.Equal(t, tt.expected, level, "level %q", tt.level)
	}
}

func TestSignalNumbers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, [SignalCount]int{34, 35, 36, 37}, cfg.SignalNumbers())

	cfg.Signals.Base = 5
	assert.Equal(t, [SignalCount]int{39, 40, 41, 42}, cfg.SignalNumbers())
}

func TestConfigPath_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/glance/glance.toml", ConfigPath())
}
