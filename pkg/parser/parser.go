package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// StdinName is the source name used for standard input.
const StdinName = "-"

// DefaultMaxLineSize bounds a single line read by a source.
const DefaultMaxLineSize = 1024 * 1024

// ReaderSource implements LineSource over an io.Reader.
type ReaderSource struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	lineNum int
}

// NewReaderSource creates a LineSource reading lines from r.
// maxLineSize <= 0 selects DefaultMaxLineSize.
func NewReaderSource(name string, r io.Reader, maxLineSize int) *ReaderSource {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	scanner := bufio.NewScanner(r)
	// bufio enforces the larger of the limit and the initial capacity.
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)

	s := &ReaderSource{name: name, scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Name returns the source name.
func (s *ReaderSource) Name() string {
	return s.name
}

// Next returns the next line. Returns io.EOF at end of input.
func (s *ReaderSource) Next(ctx context.Context) (*Line, error) {
	// Check for context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.scanner.Scan() {
		s.lineNum++
		return &Line{
			Content: s.scanner.Text(),
			Source:  s.name,
			LineNum: s.lineNum,
		}, nil
	}

	// Check for scanner error
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.name, err)
	}
	return nil, io.EOF
}

// Close closes the underlying reader if it is an io.Closer.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// FileSource implements LineSource for a single log file.
// The file is opened on the first call to Next.
type FileSource struct {
	path        string
	maxLineSize int
	current     *ReaderSource
}

// NewFileSource creates a LineSource that reads the file at path.
func NewFileSource(path string, maxLineSize int) *FileSource {
	return &FileSource{path: path, maxLineSize: maxLineSize}
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

// Next returns the next line of the file.
func (s *FileSource) Next(ctx context.Context) (*Line, error) {
	// Ensure we have a file open
	if s.current == nil {
		f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", s.path, err)
		}
		s.current = NewReaderSource(s.path, f, s.maxLineSize)
	}
	return s.current.Next(ctx)
}

// Close releases the file handle.
func (s *FileSource) Close() error {
	if s.current == nil {
		return nil
	}
	return s.current.Close()
}

// OpenSource returns a LineSource for a path, treating "-" as stdin.
// Closing a stdin source leaves os.Stdin open.
func OpenSource(path string, maxLineSize int) LineSource {
	if path == StdinName {
		return NewReaderSource(StdinName, io.NopCloser(os.Stdin), maxLineSize)
	}
	return NewFileSource(path, maxLineSize)
}
