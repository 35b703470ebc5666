package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/glance/internal/adapter/output"
	"github.com/jmylchreest/glance/internal/model"
)

const (
	// ControlInterface is the glance control interface name.
	ControlInterface = "io.github.jmylchreest.Glance"
	// ControlPath is the control object path.
	ControlPath = dbus.ObjectPath("/io/github/jmylchreest/Glance")
)

// Controller is the daemon side of the control interface.
type Controller interface {
	MarkRead() (uint32, bool)
	ClearAll() int
	Next() bool
	Prev() bool
	Close(id uint32, reason model.CloseReason) error
	Render() output.WaybarStatus
	History() []model.HistoryEntry
}

// ControlServer exposes a Controller on the bus.
// Each method replies after the mutation has been applied.
type ControlServer struct {
	ctrl   Controller
	logger *slog.Logger
}

// NewControlServer creates a ControlServer for ctrl.
func NewControlServer(ctrl Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{ctrl: ctrl, logger: logger}
}

// Export registers the control object on conn. The bus name is claimed by
// NotificationServer.Start.
func (c *ControlServer) Export(conn *dbus.Conn) error {
	if err := conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ControlPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export control introspectable: %w", err)
	}
	return nil
}

// MarkRead acknowledges the current notification and returns its id, or 0 when empty.
// D-Bus method: MarkRead() -> u
func (c *ControlServer) MarkRead() (uint32, *dbus.Error) {
	id, _ := c.ctrl.MarkRead()
	c.logger.Debug("control: mark read", "id", id)
	return id, nil
}

// ClearAll removes every notification and returns how many were removed.
// D-Bus method: ClearAll() -> u
func (c *ControlServer) ClearAll() (uint32, *dbus.Error) {
	n := c.ctrl.ClearAll()
	c.logger.Debug("control: clear all", "count", n)
	return uint32(n), nil
}

// Next moves to the next notification.
// D-Bus method: Next() -> b
func (c *ControlServer) Next() (bool, *dbus.Error) {
	return c.ctrl.Next(), nil
}

// Prev moves to the previous notification.
// D-Bus method: Prev() -> b
func (c *ControlServer) Prev() (bool, *dbus.Error) {
	return c.ctrl.Prev(), nil
}

// Close dismisses the notification with the given id.
// D-Bus method: Close(u) -> nothing
func (c *ControlServer) Close(id uint32) *dbus.Error {
	c.logger.Debug("control: close", "id", id)
	return toDBusError(c.ctrl.Close(id, model.CloseReasonDismissed))
}

// Render returns the current waybar status as JSON.
// D-Bus method: Render() -> s
func (c *ControlServer) Render() (string, *dbus.Error) {
	data, err := json.Marshal(c.ctrl.Render())
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

// History returns every notification as a JSON array.
// D-Bus method: History() -> s
func (c *ControlServer) History() (string, *dbus.Error) {
	entries := c.ctrl.History()
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "MarkRead", Args: []introspect.Arg{{Name: "id", Type: "u", Direction: "out"}}},
		{Name: "ClearAll", Args: []introspect.Arg{{Name: "count", Type: "u", Direction: "out"}}},
		{Name: "Next", Args: []introspect.Arg{{Name: "moved", Type: "b", Direction: "out"}}},
		{Name: "Prev", Args: []introspect.Arg{{Name: "moved", Type: "b", Direction: "out"}}},
		{Name: "Close", Args: []introspect.Arg{{Name: "id", Type: "u", Direction: "in"}}},
		{Name: "Render", Args: []introspect.Arg{{Name: "status", Type: "s", Direction: "out"}}},
		{Name: "History", Args: []introspect.Arg{{Name: "entries", Type: "s", Direction: "out"}}},
	}
}

// ControlClient calls the control interface of a running daemon.
type ControlClient struct {
	obj dbus.BusObject
}

// NewControlClient creates a client for the daemon owning the notification bus name.
func NewControlClient(conn *dbus.Conn) *ControlClient {
	return &ControlClient{obj: conn.Object(DBusBusName, ControlPath)}
}

func (c *ControlClient) call(ctx context.Context, method string, args []interface{}, out ...interface{}) error {
	call := c.obj.CallWithContext(ctx, ControlInterface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	if len(out) == 0 {
		return nil
	}
	if err := call.Store(out...); err != nil {
		return fmt.Errorf("%s: decode reply: %w", method, err)
	}
	return nil
}

// MarkRead acknowledges the current notification.
func (c *ControlClient) MarkRead(ctx context.Context) (uint32, error) {
	var id uint32
	err := c.call(ctx, "MarkRead", nil, &id)
	return id, err
}

// ClearAll removes every notification.
func (c *ControlClient) ClearAll(ctx context.Context) (uint32, error) {
	var count uint32
	err := c.call(ctx, "ClearAll", nil, &count)
	return count, err
}

// Next moves to the next notification.
func (c *ControlClient) Next(ctx context.Context) (bool, error) {
	var moved bool
	err := c.call(ctx, "Next", nil, &moved)
	return moved, err
}

// Prev moves to the previous notification.
func (c *ControlClient) Prev(ctx context.Context) (bool, error) {
	var moved bool
	err := c.call(ctx, "Prev", nil, &moved)
	return moved, err
}

// Close dismisses a notification.
func (c *ControlClient) Close(ctx context.Context, id uint32) error {
	return c.call(ctx, "Close", []interface{}{id})
}

// Render returns the daemon's current waybar status.
func (c *ControlClient) Render(ctx context.Context) (output.WaybarStatus, error) {
	var raw string
	var status output.WaybarStatus
	if err := c.call(ctx, "Render", nil, &raw); err != nil {
		return status, err
	}
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return status, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

// History returns every notification the daemon holds.
func (c *ControlClient) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var raw string
	if err := c.call(ctx, "History", nil, &raw); err != nil {
		return nil, err
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// IsNotFound reports whether err is the daemon's NotFound reply.
func IsNotFound(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == ErrorNotFound
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) {
		return dbusErrPtr.Name == ErrorNotFound
	}
	return false
}
