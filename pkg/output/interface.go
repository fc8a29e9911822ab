package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/combatlog/pkg/store"
)

// Formatter renders command results in a specific format.
type Formatter interface {
	// FormatReport renders an import report.
	FormatReport(ctx context.Context, report *Report, w io.Writer) error

	// FormatLogs renders a list of stored logs.
	FormatLogs(ctx context.Context, logs []store.Log, w io.Writer) error

	// FormatEvents renders the events of a log.
	FormatEvents(ctx context.Context, events []store.Event, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds per-log detail and timing.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// New returns the formatter registered under name.
func New(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", name)
	}
}
