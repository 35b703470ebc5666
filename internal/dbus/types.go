package dbus

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/glance/internal/model"
)

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []model.Action {
	actions := make([]model.Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, model.Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

// Urgency extracts the urgency hint. The protocol sends a byte, but some
// clients send a 32-bit integer. Missing or invalid values are normal.
func (n *DBusNotification) Urgency() model.Urgency {
	v, ok := n.Hints["urgency"]
	if !ok {
		return model.UrgencyNormal
	}
	switch val := v.Value().(type) {
	case byte:
		return model.ParseUrgency(int(val))
	case int32:
		return model.ParseUrgency(int(val))
	case uint32:
		return model.ParseUrgency(int(val))
	}
	return model.UrgencyNormal
}

// Category extracts the category hint.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// ImagePath extracts the image-path hint, falling back to the deprecated image_path.
func (n *DBusNotification) ImagePath() string {
	if s := n.stringHint("image-path"); s != "" {
		return s
	}
	return n.stringHint("image_path")
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ToModel converts the call into a notification for the store.
// An empty app name falls back to the desktop-entry hint and an empty icon to
// the image-path hint.
func (n *DBusNotification) ToModel() model.Notification {
	appName := strings.TrimSpace(n.AppName)
	if appName == "" {
		appName = n.DesktopEntry()
	}
	icon := n.AppIcon
	if icon == "" {
		icon = n.ImagePath()
	}

	notification := model.Notification{
		AppName:       appName,
		Summary:       n.Summary,
		Body:          n.Body,
		Icon:          icon,
		Category:      n.Category(),
		Urgency:       n.Urgency(),
		ExpireTimeout: model.ExpireTimeoutFromProtocol(n.ExpireTimeout),
	}
	if actions := n.ParsedActions(); len(actions) > 0 {
		notification.Actions = actions
	}
	return notification
}

// SpecVersion is the notification protocol version implemented.
const SpecVersion = "1.2"

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns server information for the given name, vendor and build version.
func DefaultServerInfo(name, vendor, version string) ServerInfo {
	if version == "" {
		version = "dev"
	}
	return ServerInfo{
		Name:        name,
		Vendor:      vendor,
		Version:     version,
		SpecVersion: SpecVersion,
	}
}
