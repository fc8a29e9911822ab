// Package parser turns raw combat log lines into structured records.
//
// A combat log line has the shape
//
//	10/2/2024 17:34:00.153-7  COMBAT_LOG_VERSION,21,ADVANCED_LOG_ENABLED,1
//
// where exactly two spaces separate the timestamp from a CSV encoded list of
// fields. ParseRecord handles a single line; LineSource implementations feed
// lines from files or standard input.
package parser

import (
	"encoding/json"
	"fmt"
	"time"
)

// NaiveLayout renders a timestamp without any zone information.
const NaiveLayout = "2006-01-02T15:04:05.000"

// Record is a single parsed combat log entry.
//
// Timestamp carries the wall clock time written in the log. It is always in
// time.UTC but the log's own offset is discarded, so the location carries no
// meaning.
type Record struct {
	Timestamp time.Time
	Fields    []string
}

type recordJSON struct {
	Timestamp string   `json:"timestamp"`
	Fields    []string `json:"fields"`
}

// MarshalJSON encodes the record with a zone-less timestamp.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Fields
	if fields == nil {
		fields = []string{}
	}
	return json.Marshal(recordJSON{
		Timestamp: r.Timestamp.Format(NaiveLayout),
		Fields:    fields,
	})
}

// UnmarshalJSON decodes a record produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(NaiveLayout, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing record timestamp %q: %w", raw.Timestamp, err)
	}
	r.Timestamp = ts
	r.Fields = raw.Fields
	return nil
}

// Line is a raw log line before parsing.
type Line struct {
	// Content is the raw line text without the line terminator.
	Content string

	// Source is the file path this line came from, or "-" for stdin.
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int
}
