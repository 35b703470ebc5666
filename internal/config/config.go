// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultTextTemplate = "[{{.AppName}}] <b>{{.Summary}}</b>: {{.Body}}"
	DefaultMaxLength    = 80
	DefaultTooltipLimit = 20
	DefaultServerName   = "glance"
	DefaultServerVendor = "glance"

	// SignalRTMin is SIGRTMIN as seen by glibc programs such as waybar and pkill.
	SignalRTMin = 34
	// SignalRTMax is the highest real-time signal number on Linux.
	SignalRTMax = 64
	// SignalCount is the number of consecutive signals glance listens on.
	SignalCount = 4
)

// DefaultCapabilities are advertised through GetCapabilities.
var DefaultCapabilities = []string{
	"actions",     // Default action is invoked on mark-read
	"body",        // Body text is shown in the bar and tooltip
	"icon-static", // app_icon is recorded
	"persistence", // Notifications stay in history until closed
}

// Config is the configuration for glance.
// Loaded from ~/.config/glance/glance.toml
type Config struct {
	Log        LogConfig        `toml:"log"`
	Signals    SignalConfig     `toml:"signals"`
	Navigation NavigationConfig `toml:"navigation"`
	Render     RenderConfig     `toml:"render"`
	Server     ServerConfig     `toml:"server"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// SignalConfig contains the real-time signal layout.
type SignalConfig struct {
	// Base is the offset from SIGRTMIN of the mark-read signal.
	// Base+1 clears, Base+2 moves next, Base+3 moves previous.
	Base int `toml:"base"`
}

// NavigationConfig contains cursor behaviour settings.
type NavigationConfig struct {
	FollowNew       bool `toml:"follow_new"`         // New notifications take focus
	MarkReadOnLeave bool `toml:"mark_read_on_leave"` // next/prev acknowledge the notification left behind
}

// RenderConfig contains waybar output settings.
type RenderConfig struct {
	TextTemplate string            `toml:"text_template"` // text/template over model.Notification
	MaxLength    int               `toml:"max_length"`    // Max runes per field in text (0 = unlimited)
	EscapeMarkup bool              `toml:"escape_markup"` // Escape Pango markup in notification fields
	TooltipLimit int               `toml:"tooltip_limit"` // Max history lines in tooltip (0 = unlimited)
	AppIcons     map[string]string `toml:"app_icons"`     // app_name -> alt value for waybar format-icons
}

// ServerConfig contains bus server metadata.
type ServerConfig struct {
	Name         string   `toml:"name"`
	Vendor       string   `toml:"vendor"`
	Capabilities []string `toml:"capabilities"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Signals: SignalConfig{
			Base: 0,
		},
		Navigation: NavigationConfig{
			FollowNew:       false,
			MarkReadOnLeave: true,
		},
		Render: RenderConfig{
			TextTemplate: DefaultTextTemplate,
			MaxLength:    DefaultMaxLength,
			EscapeMarkup: true,
			TooltipLimit: DefaultTooltipLimit,
			AppIcons:     make(map[string]string),
		},
		Server: ServerConfig{
			Name:         DefaultServerName,
			Vendor:       DefaultServerVendor,
			Capabilities: append([]string(nil), DefaultCapabilities...),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "glance", "glance.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	maxBase := SignalRTMax - SignalRTMin - (SignalCount - 1)
	if c.Signals.Base < 0 || c.Signals.Base > maxBase {
		return fmt.Errorf("signals.base must be between 0 and %d, got %d", maxBase, c.Signals.Base)
	}

	if strings.TrimSpace(c.Render.TextTemplate) == "" {
		return errors.New("render.text_template cannot be empty")
	}
	if _, err := template.New("text").Parse(c.Render.TextTemplate); err != nil {
		return fmt.Errorf("invalid render.text_template: %w", err)
	}
	if c.Render.MaxLength < 0 {
		return fmt.Errorf("render.max_length must not be negative, got %d", c.Render.MaxLength)
	}
	if c.Render.TooltipLimit < 0 {
		return fmt.Errorf("render.tooltip_limit must not be negative, got %d", c.Render.TooltipLimit)
	}

	if c.Server.Name == "" {
		return errors.New("server.name cannot be empty")
	}

	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}
}

// SignalNumbers returns the absolute signal numbers for mark-read, clear,
// next and prev, in that order.
func (c *Config) SignalNumbers() [SignalCount]int {
	base := SignalRTMin + c.Signals.Base
	return [SignalCount]int{base, base + 1, base + 2, base + 3}
}
