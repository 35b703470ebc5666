package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/glance/internal/model"
)

// PlainFormatter formats history as plain text, one block per notification.
type PlainFormatter struct {
	opts FormatterOptions
	now  func() time.Time
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts, now: time.Now}
}

// Format writes entries as plain text.
func (f *PlainFormatter) Format(w io.Writer, entries []model.HistoryEntry) error {
	for i := range entries {
		if err := f.formatEntry(w, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatEntry formats a single entry.
func (f *PlainFormatter) formatEntry(w io.Writer, e *model.HistoryEntry) error {
	var sb strings.Builder

	marker := " "
	if e.Current {
		marker = ">"
	}
	state := "unread"
	if e.Read {
		state = "read"
	}
	fmt.Fprintf(&sb, "%s [%d] <%s> %s (%s, %s", marker, e.ID, e.AppName, e.Summary, e.Urgency, state)
	if f.opts.ShowTime && !e.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, ", %s", humanize.RelTime(e.CreatedAt, f.now(), "ago", "from now"))
	}
	sb.WriteString(")\n")

	if e.Body != "" {
		sb.WriteString("    " + model.Truncate(e.Body, f.opts.BodyMaxLen) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
