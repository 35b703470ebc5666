// Package daemon owns the notification store and cursor for glance.
// State serializes every mutation from the bus, the action queue fed by
// real-time signals, and the control interface, and pushes a waybar
// render after each one. ConfigWatcher hot-reloads the TOML config.
package daemon
