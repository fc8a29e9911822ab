package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/store"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleEvent  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// TextFormatter formats results as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// FormatReport renders the report as text.
func (f *TextFormatter) FormatReport(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	if report.Failed() {
		_, err := fmt.Fprintf(w, "combatlog: import failed: %s\n", report.Error)
		return err
	}
	_, err := fmt.Fprintf(w, "combatlog: %d file(s) imported, %d record(s)\n",
		report.Summary.FilesImported,
		report.Summary.RecordsImported)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, styleHeader.Render("=== Combat Log Import ==="))
	fmt.Fprintln(w)

	if report.Failed() {
		fmt.Fprintf(w, "%s %s\n", styleError.Render("FAILED"), report.Error)
		fmt.Fprintln(w, "Nothing was imported.")
		return nil
	}

	for _, l := range report.Logs {
		f.formatLogReport(&l, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d file(s) imported, %d record(s)\n",
		report.Summary.FilesImported,
		report.Summary.RecordsImported)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Database: %s\n", report.Metadata.Database)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatLogReport(l *LogReport, w io.Writer) {
	fmt.Fprintf(w, "[%d] %s\n", l.LogID, styleSource.Render(displaySource(l.Source)))
	fmt.Fprintf(w, "  Records: %d\n", l.Records)

	if f.opts.Verbose {
		fmt.Fprintf(w, "  UUID:    %s\n", styleMuted.Render(l.UUID))
		if l.Records > 0 {
			fmt.Fprintf(w, "  Span:    %s .. %s\n", l.FirstTimestamp, l.LastTimestamp)
		}
	}
	fmt.Fprintln(w)
}

// FormatLogs renders logs as a table.
func (f *TextFormatter) FormatLogs(ctx context.Context, logs []store.Log, w io.Writer) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(w, "No logs imported.")
		return err
	}

	fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("%-6s %-36s %-23s %8s  %s", "ID", "UUID", "IMPORTED", "EVENTS", "SOURCE")))
	for _, l := range logs {
		fmt.Fprintf(w, "%-6d %-36s %-23s %8d  %s\n",
			l.ID,
			l.UUID,
			l.ImportedAt.Format(store.TimeLayout),
			l.EventCount,
			styleSource.Render(displaySource(l.Source)))
	}

	if !f.opts.Quiet {
		fmt.Fprintf(w, "\n%d log(s)\n", len(logs))
	}
	return nil
}

// FormatEvents renders one event per line: timestamp, then the fields.
func (f *TextFormatter) FormatEvents(ctx context.Context, events []store.Event, w io.Writer) error {
	for _, e := range events {
		name, rest := "", []string(nil)
		if len(e.Fields) > 0 {
			name, rest = e.Fields[0], e.Fields[1:]
		}

		line := fmt.Sprintf("%s %s", styleMuted.Render(e.Timestamp.Format(parser.NaiveLayout)), styleEvent.Render(name))
		if len(rest) > 0 {
			line += " " + strings.Join(rest, ",")
		}
		if f.opts.Verbose {
			line = fmt.Sprintf("%6d %s", e.ID, line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if !f.opts.Quiet {
		fmt.Fprintf(w, "\n%d event(s)\n", len(events))
	}
	return nil
}

func displaySource(source string) string {
	if source == parser.StdinName {
		return "(stdin)"
	}
	return source
}
