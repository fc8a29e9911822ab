// Package output provides formatting for import reports, logs and events.
package output

import (
	"time"

	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Report is the complete import output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Logs has one entry per imported source.
	Logs []LogReport `json:"logs"`

	// Metadata provides context about the import.
	Metadata Metadata `json:"metadata"`

	// Error is set when the import failed.
	Error string `json:"error,omitempty"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// FilesImported is the number of sources that became logs.
	FilesImported int `json:"files_imported"`

	// RecordsImported is the total number of records stored.
	RecordsImported int `json:"records_imported"`
}

// LogReport describes one imported log. Timestamps use the naive layout of
// the combat log.
type LogReport struct {
	LogID          int64  `json:"log_id"`
	UUID           string `json:"uuid"`
	Source         string `json:"source"`
	Records        int    `json:"records"`
	FirstTimestamp string `json:"first_timestamp,omitempty"`
	LastTimestamp  string `json:"last_timestamp,omitempty"`
}

// Metadata provides context about the import run.
type Metadata struct {
	// Database is the path of the store written to.
	Database string `json:"database"`

	// Sources lists the inputs that were read.
	Sources []string `json:"sources"`

	// ImportedAt is when the import finished.
	ImportedAt time.Time `json:"imported_at"`

	// Duration is how long the import took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from an import result.
func NewReport(result *importer.Result, database string) *Report {
	report := &Report{
		Logs: make([]LogReport, 0, len(result.Logs)),
		Metadata: Metadata{
			Database:   database,
			Sources:    make([]string, 0, len(result.Logs)),
			ImportedAt: result.FinishedAt,
			Duration:   result.FinishedAt.Sub(result.StartedAt),
		},
		Summary: Summary{
			FilesImported:   len(result.Logs),
			RecordsImported: result.TotalRecords(),
		},
	}

	for _, l := range result.Logs {
		lr := LogReport{
			LogID:   l.LogID,
			UUID:    l.UUID,
			Source:  l.Source,
			Records: l.Records,
		}
		if l.Records > 0 {
			lr.FirstTimestamp = l.FirstTimestamp.Format(parser.NaiveLayout)
			lr.LastTimestamp = l.LastTimestamp.Format(parser.NaiveLayout)
		}
		report.Logs = append(report.Logs, lr)
		report.Metadata.Sources = append(report.Metadata.Sources, l.Source)
	}

	return report
}

// NewErrorReport creates a Report for an import that failed.
func NewErrorReport(err error, database string, sources []string) *Report {
	return &Report{
		Logs: []LogReport{},
		Metadata: Metadata{
			Database:   database,
			Sources:    sources,
			ImportedAt: time.Now(),
		},
		Error: err.Error(),
	}
}

// Failed returns true if the import did not complete.
func (r *Report) Failed() bool {
	return r.Error != ""
}
