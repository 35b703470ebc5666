// Package output provides output formatters for notifications.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/glance/internal/model"
)

// Formatter formats notification history for output.
type Formatter interface {
	// Format writes formatted entries to the writer.
	Format(w io.Writer, entries []model.HistoryEntry) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
)

// ValidFormats returns all supported history formats.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatPlain, "":
		return NewPlainFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown format %q, must be one of: %v", format, ValidFormats())
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	BodyMaxLen int  // Maximum body length, plain only (0 = unlimited)
	ShowTime   bool // Show relative time (plain only)
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		BodyMaxLen: 80,
		ShowTime:   true,
	}
}
