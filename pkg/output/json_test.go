package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/store"
)

func createTestReport() *Report {
	start := time.Date(2024, 10, 3, 8, 0, 0, 0, time.UTC)
	result := &importer.Result{
		Logs: []importer.Summary{
			{
				LogID:          1,
				UUID:           "5b0c1c8e-2f43-4c52-9a49-1b7d93b0f0a1",
				Source:         "WoWCombatLog-100224_173400.txt",
				Records:        3,
				FirstTimestamp: time.Date(2024, 10, 2, 17, 34, 0, 153*int(time.Millisecond), time.UTC),
				LastTimestamp:  time.Date(2024, 10, 2, 17, 36, 2, 460*int(time.Millisecond), time.UTC),
			},
			{
				LogID:   2,
				UUID:    "0f5e7c2a-9d3b-4b1e-8f0a-6c2d1e4b7a93",
				Source:  "-",
				Records: 0,
			},
		},
		StartedAt:  start,
		FinishedAt: start.Add(250 * time.Millisecond),
	}
	return NewReport(result, "combatlog.db")
}

func TestNewReport(t *testing.T) {
	report := createTestReport()

	if report.Summary.FilesImported != 2 {
		t.Errorf("FilesImported = %d, want 2", report.Summary.FilesImported)
	}
	if report.Summary.RecordsImported != 3 {
		t.Errorf("RecordsImported = %d, want 3", report.Summary.RecordsImported)
	}
	if report.Metadata.Duration != 250*time.Millisecond {
		t.Errorf("Duration = %s, want 250ms", report.Metadata.Duration)
	}
	if got := report.Logs[0].FirstTimestamp; got != "2024-10-02T17:34:00.153" {
		t.Errorf("FirstTimestamp = %q", got)
	}
	if report.Logs[1].FirstTimestamp != "" {
		t.Error("empty log should have no timestamps")
	}
	if len(report.Metadata.Sources) != 2 || report.Metadata.Sources[1] != "-" {
		t.Errorf("Sources = %v", report.Metadata.Sources)
	}
	if report.Failed() {
		t.Error("Failed() should be false")
	}
}

func TestNewErrorReport(t *testing.T) {
	report := NewErrorReport(errors.New("bad.txt:3: invalid timestamp"), "combatlog.db", []string{"bad.txt"})
	if !report.Failed() {
		t.Error("Failed() should be true")
	}
	if report.Summary.FilesImported != 0 {
		t.Errorf("FilesImported = %d, want 0", report.Summary.FilesImported)
	}
}

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.FormatReport(context.Background(), report, &buf); err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	// Verify it's valid JSON
	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.RecordsImported != 3 {
		t.Errorf("RecordsImported = %d, want 3", parsed.Summary.RecordsImported)
	}
	if len(parsed.Logs) != 2 {
		t.Errorf("len(Logs) = %d, want 2", len(parsed.Logs))
	}
	if parsed.Logs[0].LastTimestamp != "2024-10-02T17:36:02.460" {
		t.Errorf("LastTimestamp = %q", parsed.Logs[0].LastTimestamp)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["error"]; ok {
		t.Error("successful report should omit error")
	}
}

func TestJSONFormatter_FormatReport_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.FormatReport(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	// Quiet mode should only output summary
	var parsed Summary
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.FilesImported != 2 {
		t.Errorf("FilesImported = %d, want 2", parsed.FilesImported)
	}
}

func TestJSONFormatter_FormatLogs_Empty(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatLogs(context.Background(), nil, &buf); err != nil {
		t.Fatalf("FormatLogs() error = %v", err)
	}
	if got := bytes.TrimSpace(buf.Bytes()); string(got) != "[]" {
		t.Errorf("FormatLogs(nil) = %s, want []", got)
	}
}

func TestJSONFormatter_FormatEvents(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	events := []store.Event{{
		ID:        4,
		LogID:     1,
		Timestamp: time.Date(2024, 10, 2, 17, 34, 0, 153*int(time.Millisecond), time.UTC),
		Fields:    []string{"ZONE_CHANGE", "2657", "Nerub-ar Palace", "16"},
	}}

	var buf bytes.Buffer
	if err := f.FormatEvents(context.Background(), events, &buf); err != nil {
		t.Fatalf("FormatEvents() error = %v", err)
	}

	var parsed []struct {
		ID        int64    `json:"id"`
		Timestamp string   `json:"timestamp"`
		Fields    []string `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("len = %d, want 1", len(parsed))
	}
	if parsed[0].Timestamp != "2024-10-02T17:34:00.153" {
		t.Errorf("Timestamp = %q", parsed[0].Timestamp)
	}
	if parsed[0].Fields[1] != "2657" {
		t.Errorf("Fields[1] = %q, want the string 2657", parsed[0].Fields[1])
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"text", "json"} {
		f, err := New(name, FormatOptions{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}

	if _, err := New("xml", FormatOptions{}); err == nil {
		t.Error("New(xml) should fail")
	}
}
