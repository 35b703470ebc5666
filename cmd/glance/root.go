package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/glance/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

// rootCmd runs the daemon when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "glance",
	Short: "Notification daemon for waybar",
	Long: `glance is a desktop notification daemon that keeps notifications in
memory and shows one at a time in a waybar custom module.

It owns org.freedesktop.Notifications on the session bus and writes one
JSON status line to stdout after every change. Navigation is driven by
real-time signals, so waybar can bind clicks and scrolls directly:

  "custom/glance": {
    "exec": "glance",
    "return-type": "json",
    "format": "{icon} {}",
    "format-icons": {"empty": "", "low": "", "normal": "", "critical": ""},
    "on-click": "pkill -RTMIN+0 glance",
    "on-click-right": "pkill -RTMIN+1 glance",
    "on-scroll-down": "pkill -RTMIN+2 glance",
    "on-scroll-up": "pkill -RTMIN+3 glance"
  }

SIGRTMIN+base marks the current notification read, +1 clears all, +2 moves
to the next and +3 to the previous. The base is set in [signals].`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath())
		if err != nil {
			setupLogger(slog.LevelInfo)
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		if globalOpts.verbose {
			level = slog.LevelDebug
		}
		setupLogger(level)
		return nil
	},
	RunE: runDaemon,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/glance/glance.toml)")
}

func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

// setupLogger configures the global slog logger.
// Logs go to stderr; stdout carries waybar output only.
func setupLogger(level slog.Level) {
	logLevel.Set(level)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
