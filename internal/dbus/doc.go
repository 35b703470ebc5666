// Package dbus implements the org.freedesktop.Notifications D-Bus interface
// for glance, plus the io.github.jmylchreest.Glance control interface used by
// `glance ctl`. Handlers are injected so the daemon owns all state.
package dbus
