package parser

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readAll(t *testing.T, src LineSource) []*Line {
	t.Helper()
	ctx := context.Background()
	var lines []*Line
	for {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestFileSource_Next(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "WoWCombatLog.txt")
	content := headerLine + "\n" +
		"10/2/2024 17:34:01.000-7  ZONE_CHANGE,2657,\"Nerub-ar Palace\",16\n" +
		"10/2/2024 17:34:02.000-7  MAP_CHANGE,2292,\"Nerub-ar Palace\"\n"
	if err := os.WriteFile(logFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile, 0)
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}

	if lines[0].LineNum != 1 || lines[2].LineNum != 3 {
		t.Errorf("LineNum = %d..%d, want 1..3", lines[0].LineNum, lines[2].LineNum)
	}
	if lines[0].Source != logFile {
		t.Errorf("Source = %q, want %q", lines[0].Source, logFile)
	}
	if lines[0].Content != headerLine {
		t.Errorf("Content = %q, want %q", lines[0].Content, headerLine)
	}
	if source.Name() != logFile {
		t.Errorf("Name() = %q, want %q", source.Name(), logFile)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	source := NewFileSource("/nonexistent/WoWCombatLog.txt", 0)
	defer source.Close()

	_, err := source.Next(context.Background())
	if err == nil {
		t.Fatal("Next() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Next() error = %v, want os.ErrNotExist", err)
	}
}

func TestFileSource_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(logFile, nil, 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(logFile, 0)
	defer source.Close()

	if lines := readAll(t, source); len(lines) != 0 {
		t.Errorf("Got %d lines, want 0", len(lines))
	}
}

func TestReaderSource_CRLF(t *testing.T) {
	src := NewReaderSource(StdinName, strings.NewReader("a\r\nb\r\n"), 0)
	lines := readAll(t, src)

	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}
	if lines[0].Content != "a" || lines[1].Content != "b" {
		t.Errorf("Content = %q, %q; want \"a\", \"b\"", lines[0].Content, lines[1].Content)
	}
	if lines[0].Source != StdinName {
		t.Errorf("Source = %q, want %q", lines[0].Source, StdinName)
	}
}

func TestReaderSource_BlankLinesAreKept(t *testing.T) {
	src := NewReaderSource("x", strings.NewReader("a\n\nb"), 0)
	lines := readAll(t, src)

	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}
	if lines[1].Content != "" || lines[1].LineNum != 2 {
		t.Errorf("line 2 = %+v, want empty content at LineNum 2", lines[1])
	}
}

func TestReaderSource_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", 100)
	src := NewReaderSource("x", strings.NewReader(long+"\n"), 16)

	_, err := src.Next(context.Background())
	if err == nil {
		t.Fatal("Next() expected error for line longer than max size")
	}
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("Next() error = %v, want bufio.ErrTooLong", err)
	}
}

func TestReaderSource_SmallMaxLineSize(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		line    string
		wantErr bool
	}{
		{"under 4 KiB limit", 4096, strings.Repeat("x", 1000), false},
		{"over 4 KiB limit", 4096, strings.Repeat("x", 5000), true},
		{"over 64 KiB boundary", 65536, strings.Repeat("x", 70000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewReaderSource("x", strings.NewReader(tt.line+"\n"), tt.max)
			line, err := src.Next(context.Background())
			if tt.wantErr {
				if !errors.Is(err, bufio.ErrTooLong) {
					t.Errorf("Next() error = %v, want bufio.ErrTooLong", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if line.Content != tt.line {
				t.Errorf("Next() returned %d bytes, want %d", len(line.Content), len(tt.line))
			}
		})
	}
}

func TestReaderSource_ContextCancelled(t *testing.T) {
	src := NewReaderSource("x", strings.NewReader("a\nb\n"), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestReaderSource_ClosesUnderlyingReader(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("a\n")}
	src := NewReaderSource("x", rc, 0)

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !rc.closed {
		t.Error("Close() did not close the underlying reader")
	}
	// Second close is a no-op.
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestOpenSource(t *testing.T) {
	if got := OpenSource(StdinName, 0).Name(); got != StdinName {
		t.Errorf("OpenSource(-).Name() = %q, want %q", got, StdinName)
	}
	if _, ok := OpenSource("combat.txt", 0).(*FileSource); !ok {
		t.Error("OpenSource(path) did not return a *FileSource")
	}
}
