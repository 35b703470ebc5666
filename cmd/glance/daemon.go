package main

import (
	"os"
	"os/signal"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/glance/internal/config"
	"github.com/jmylchreest/glance/internal/daemon"
	"github.com/jmylchreest/glance/internal/dbus"
	"github.com/jmylchreest/glance/internal/model"
)

// runDaemon owns the bus name and serves notifications until SIGINT or SIGTERM.
func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting glance", "version", version, "config", configPath())

	state, err := daemon.NewState(cfg, os.Stdout, logger)
	if err != nil {
		return err
	}

	// Real-time signals terminate by default; register them before the first render.
	queue := daemon.NewActionQueue(state, daemon.DefaultQueueSize, logger)
	queue.Start(ctx)
	defer queue.Stop()

	listener := daemon.NewSignalListener(daemon.SignalMap{Base: cfg.Signals.Base}, queue, logger)
	listener.Start(ctx)
	defer listener.Stop()

	state.Flush()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}

	server := dbus.NewNotificationServer(logger)
	server.SetServerInfo(dbus.DefaultServerInfo(cfg.Server.Name, cfg.Server.Vendor, version))
	server.SetCapabilities(cfg.Server.Capabilities)
	server.SetNotifyHandler(state.Notify)
	server.SetCloseHandler(func(id uint32) error {
		return state.Close(id, model.CloseReasonClosed)
	})

	state.SetHooks(daemon.Hooks{
		OnClosed: func(id uint32, reason model.CloseReason) {
			if err := server.EmitNotificationClosed(id, reason); err != nil {
				logger.Debug("failed to emit NotificationClosed", "id", id, "error", err)
			}
		},
		OnActionInvoked: func(id uint32, actionKey string) {
			if err := server.EmitActionInvoked(id, actionKey); err != nil {
				logger.Debug("failed to emit ActionInvoked", "id", id, "error", err)
			}
		},
	})

	if err := dbus.NewControlServer(state, logger).Export(conn); err != nil {
		return err
	}
	if err := server.Start(conn); err != nil {
		return err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("failed to stop notification server", "error", err)
		}
	}()

	watcher := daemon.NewConfigWatcher(configPath(), logger)
	watcher.SetReloadCallback(func(newCfg *config.Config) {
		applyConfig(newCfg, state, server, listener)
	})
	if err := watcher.Start(ctx, cfg); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	if sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		logger.Debug("sd_notify failed", "error", err)
	} else if sent {
		logger.Debug("notified systemd of readiness")
	}
	logger.Info("glance ready", "signals", cfg.SignalNumbers())

	<-ctx.Done()
	logger.Info("shutting down")
	_, _ = sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)
	return nil
}

// applyConfig pushes a reloaded config into the running components.
func applyConfig(newCfg *config.Config, state *daemon.State, server *dbus.NotificationServer, listener *daemon.SignalListener) {
	if err := state.Reconfigure(newCfg); err != nil {
		logger.Warn("failed to apply reloaded config", "error", err)
		return
	}
	listener.Remap(daemon.SignalMap{Base: newCfg.Signals.Base})
	server.SetCapabilities(newCfg.Server.Capabilities)
	server.SetServerInfo(dbus.DefaultServerInfo(newCfg.Server.Name, newCfg.Server.Vendor, version))

	if level, err := newCfg.LogLevel(); err == nil && !globalOpts.verbose {
		logLevel.Set(level)
	}
	logger.Info("config applied", "signals", newCfg.SignalNumbers())
}
