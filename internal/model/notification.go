// Package model defines the core data structures for glance.
package model

import (
	"errors"
	"strings"
	"time"
)

// Urgency is the freedesktop urgency hint. It affects display class only, never ordering.
type Urgency uint8

// Urgency levels matching the freedesktop byte values.
const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the lowercase urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseUrgency converts a raw hint value. Out-of-range values become UrgencyNormal.
func ParseUrgency(level int) Urgency {
	if level < int(UrgencyLow) || level > int(UrgencyCritical) {
		return UrgencyNormal
	}
	return Urgency(level)
}

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the notification protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Errors shared by the store, the daemon and the bus adapter.
var (
	// ErrNotFound is returned when an operation references an id absent from the store.
	ErrNotFound = errors.New("notification not found")
	// ErrInvalidArgument is returned for malformed requests, such as a
	// replaces_id that was never handed out.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Action is a notification action with key and label.
type Action struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// DefaultActionKey is the action invoked when the notification itself is clicked.
const DefaultActionKey = "default"

// Notification is one received notification.
type Notification struct {
	ID            uint32         `json:"id" yaml:"id"`
	AppName       string         `json:"app_name" yaml:"app_name"`
	Summary       string         `json:"summary" yaml:"summary"`
	Body          string         `json:"body" yaml:"body"`
	Icon          string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category      string         `json:"category,omitempty" yaml:"category,omitempty"`
	Urgency       Urgency        `json:"urgency" yaml:"urgency"`
	ExpireTimeout *time.Duration `json:"expire_timeout,omitempty" yaml:"expire_timeout,omitempty"` // nil = never expires
	Actions       []Action       `json:"actions,omitempty" yaml:"actions,omitempty"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
}

// ExpireTimeoutFromProtocol converts the Notify expire_timeout argument.
// -1 (server default) and 0 (never) both map to nil; glance never sweeps.
func ExpireTimeoutFromProtocol(ms int32) *time.Duration {
	if ms <= 0 {
		return nil
	}
	d := time.Duration(ms) * time.Millisecond
	return &d
}

// HasAction reports whether the notification advertises the given action key.
func (n *Notification) HasAction(key string) bool {
	for _, a := range n.Actions {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the notification.
func (n *Notification) Clone() Notification {
	clone := *n
	if n.ExpireTimeout != nil {
		d := *n.ExpireTimeout
		clone.ExpireTimeout = &d
	}
	if n.Actions != nil {
		clone.Actions = append([]Action(nil), n.Actions...)
	}
	return clone
}

// Truncate collapses whitespace in s and limits it to maxLen runes.
// A maxLen of zero or less disables truncation.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// HistoryEntry is a notification together with its navigation state.
type HistoryEntry struct {
	Notification `yaml:",inline"`
	Read         bool `json:"read" yaml:"read"`
	Current      bool `json:"current" yaml:"current"`
}

// Snapshot is a fully settled view of the store and cursor.
// Entries are in arrival order; Position is 1-based and 0 when Current is 0.
type Snapshot struct {
	Entries  []HistoryEntry `json:"entries"`
	Current  uint32         `json:"current"`
	Position int            `json:"position"`

	// Arrived is set on the render that directly follows a new notification.
	Arrived bool `json:"-" yaml:"-"`
}

// Count returns the number of notifications in the snapshot.
func (s Snapshot) Count() int {
	return len(s.Entries)
}

// CurrentEntry returns the current entry, or false when the cursor is empty.
func (s Snapshot) CurrentEntry() (HistoryEntry, bool) {
	if s.Position < 1 || s.Position > len(s.Entries) {
		return HistoryEntry{}, false
	}
	return s.Entries[s.Position-1], true
}
