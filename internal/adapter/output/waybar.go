package output

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/glance/internal/model"
)

// Waybar class names.
const (
	ClassEmpty    = "empty"
	ClassRead     = "read"
	ClassUnread   = "unread"
	ClassCritical = "critical"
	ClassNotify   = "notify"
)

// EmptyTooltip is shown when there are no notifications.
const EmptyTooltip = "No notifications"

// WaybarStatus is one line of waybar custom module JSON output.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt"`
	Tooltip    string `json:"tooltip"`
	Class      string `json:"class"`
	Percentage int    `json:"percentage"`
}

// WaybarOptions configures the waybar renderer.
type WaybarOptions struct {
	TextTemplate string
	MaxLength    int  // Max runes per field in text (0 = unlimited)
	EscapeMarkup bool // Escape Pango markup in notification fields
	TooltipLimit int  // Max history lines in tooltip (0 = unlimited)
	AppIcons     map[string]string
}

// WaybarRenderer turns a snapshot into waybar status. Render never fails.
type WaybarRenderer struct {
	opts WaybarOptions
	tmpl *template.Template
	now  func() time.Time
}

// NewWaybarRenderer parses the text template and returns a renderer.
func NewWaybarRenderer(opts WaybarOptions) (*WaybarRenderer, error) {
	tmpl, err := template.New("text").Option("missingkey=zero").Parse(opts.TextTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return &WaybarRenderer{opts: opts, tmpl: tmpl, now: time.Now}, nil
}

// SetClock overrides the clock used for tooltip ages. Intended for tests.
func (r *WaybarRenderer) SetClock(now func() time.Time) {
	r.now = now
}

// Render builds the status for a snapshot.
func (r *WaybarRenderer) Render(snap model.Snapshot) WaybarStatus {
	current, ok := snap.CurrentEntry()
	if !ok {
		return WaybarStatus{
			Alt:     ClassEmpty,
			Tooltip: EmptyTooltip,
			Class:   ClassEmpty,
		}
	}

	count := snap.Count()
	return WaybarStatus{
		Text:       r.text(current.Notification),
		Alt:        r.alt(current.Notification),
		Tooltip:    r.tooltip(snap, current),
		Class:      class(snap, current),
		Percentage: snap.Position * 100 / count,
	}
}

// Write renders the snapshot and writes it as a single JSON line.
func (r *WaybarRenderer) Write(w io.Writer, snap model.Snapshot) error {
	return WriteStatus(w, r.Render(snap))
}

// WriteStatus writes status as a single compact JSON line.
func WriteStatus(w io.Writer, status WaybarStatus) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(status)
}

// text executes the template over a prepared copy of n. A template that fails
// at execution falls back to the plain summary.
func (r *WaybarRenderer) text(n model.Notification) string {
	data := n.Clone()
	data.AppName = r.field(n.AppName)
	data.Summary = r.field(n.Summary)
	data.Body = r.field(n.Body)

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return data.Summary
	}
	return sb.String()
}

func (r *WaybarRenderer) field(s string) string {
	s = model.Truncate(s, r.opts.MaxLength)
	if r.opts.EscapeMarkup {
		s = html.EscapeString(s)
	}
	return s
}

func (r *WaybarRenderer) escape(s string) string {
	if r.opts.EscapeMarkup {
		return html.EscapeString(s)
	}
	return s
}

func (r *WaybarRenderer) alt(n model.Notification) string {
	if icon, ok := r.opts.AppIcons[n.AppName]; ok {
		return icon
	}
	if icon, ok := r.opts.AppIcons[strings.ToLower(n.AppName)]; ok {
		return icon
	}
	return n.Urgency.String()
}

// class reports notify for the render that follows an arrival, then the
// read state of the current entry. Critical styling only applies while unread.
func class(snap model.Snapshot, e model.HistoryEntry) string {
	switch {
	case snap.Arrived:
		return ClassNotify
	case e.Read:
		return ClassRead
	case e.Urgency == model.UrgencyCritical:
		return ClassCritical
	default:
		return ClassUnread
	}
}

// tooltip shows the position header, the current notification in full, then
// the history newest first.
func (r *WaybarRenderer) tooltip(snap model.Snapshot, current model.HistoryEntry) string {
	var sb strings.Builder

	unread := 0
	for _, e := range snap.Entries {
		if !e.Read {
			unread++
		}
	}
	fmt.Fprintf(&sb, "%d of %d", snap.Position, snap.Count())
	if unread > 0 {
		fmt.Fprintf(&sb, " (%d unread)", unread)
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "<b>[%s] %s</b>", r.escape(current.AppName), r.escape(current.Summary))
	if body := strings.TrimSpace(current.Body); body != "" {
		sb.WriteString("\n" + r.escape(body))
	}

	if snap.Count() < 2 {
		return sb.String()
	}

	sb.WriteString("\n")
	now := r.now()
	shown := 0
	for i := len(snap.Entries) - 1; i >= 0; i-- {
		if r.opts.TooltipLimit > 0 && shown == r.opts.TooltipLimit {
			fmt.Fprintf(&sb, "\n... and %d more", i+1)
			break
		}
		e := snap.Entries[i]
		marker := "•"
		if e.Current {
			marker = "▸"
		}
		line := fmt.Sprintf("%s [%s] %s", marker, e.AppName, model.Truncate(e.Summary, r.opts.MaxLength))
		line = r.escape(line)
		if !e.Read {
			line = "<b>" + line + "</b>"
		}
		fmt.Fprintf(&sb, "\n%s · %s", line, humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
		shown++
	}
	return sb.String()
}
