package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/combatlog/pkg/store"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatReport renders the report as JSON.
func (f *JSONFormatter) FormatReport(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		// Quiet mode: just summary
		return f.encode(w, report.Summary)
	}
	return f.encode(w, report)
}

// FormatLogs renders logs as a JSON array.
func (f *JSONFormatter) FormatLogs(ctx context.Context, logs []store.Log, w io.Writer) error {
	if logs == nil {
		logs = []store.Log{}
	}
	return f.encode(w, logs)
}

// FormatEvents renders events as a JSON array.
func (f *JSONFormatter) FormatEvents(ctx context.Context, events []store.Event, w io.Writer) error {
	if events == nil {
		events = []store.Event{}
	}
	return f.encode(w, events)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
