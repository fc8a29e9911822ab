// Package importer turns line sources into persisted combat logs.
//
// An import runs in two phases. Collect parses every line of every source
// into batches and stops at the first line that does not parse. Only when
// all sources have been collected are the batches handed to the Saver, which
// stores them in one transaction. A bad line therefore persists nothing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/store"
)

// Batch is the ordered set of records collected from one source.
type Batch struct {
	// ID is the shared identifier of every record in the batch.
	ID      string
	Source  string
	Records []parser.Record
}

// LineError reports which line of which source failed to parse.
type LineError struct {
	Source  string
	LineNum int
	Err     *parser.ParseError
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.LineNum, e.Err)
}

// Unwrap returns the parse error.
func (e *LineError) Unwrap() error {
	return e.Err
}

// Collect reads src to the end and parses every line into a batch.
// The first line that fails to parse aborts with a *LineError.
func Collect(ctx context.Context, src parser.LineSource) (*Batch, error) {
	batch := &Batch{
		ID:      uuid.NewString(),
		Source:  src.Name(),
		Records: []parser.Record{},
	}

	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return batch, nil
		}
		if err != nil {
			return nil, err
		}

		record, err := parser.ParseRecord(line.Content)
		if err != nil {
			var perr *parser.ParseError
			if !errors.As(err, &perr) {
				return nil, err
			}
			return nil, &LineError{Source: line.Source, LineNum: line.LineNum, Err: perr}
		}
		batch.Records = append(batch.Records, record)
	}
}

// Saver persists collected batches atomically.
type Saver interface {
	SaveLogs(ctx context.Context, logs ...store.NewLog) ([]store.Log, error)
}

// Summary describes one imported log. The timestamps are zero for a log
// without records.
type Summary struct {
	LogID          int64
	UUID           string
	Source         string
	Records        int
	FirstTimestamp time.Time
	LastTimestamp  time.Time
}

// Result is the outcome of an import.
type Result struct {
	Logs       []Summary
	StartedAt  time.Time
	FinishedAt time.Time
}

// TotalRecords returns the number of records across all logs.
func (r *Result) TotalRecords() int {
	n := 0
	for _, l := range r.Logs {
		n += l.Records
	}
	return n
}

// Importer runs the two-phase import.
type Importer struct {
	saver  Saver
	logger *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		im.logger = logger
	}
}

// New creates an Importer that persists through saver.
func New(saver Saver, opts ...Option) *Importer {
	im := &Importer{
		saver:  saver,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import collects every source and then saves all batches together.
// Sources are closed before Import returns.
func (im *Importer) Import(ctx context.Context, sources ...parser.LineSource) (*Result, error) {
	result := &Result{StartedAt: time.Now()}

	defer func() {
		for _, src := range sources {
			if err := src.Close(); err != nil {
				im.logger.Warn("closing source", "source", src.Name(), "error", err)
			}
		}
	}()

	batches := make([]*Batch, 0, len(sources))
	for _, src := range sources {
		im.logger.Debug("collecting", "source", src.Name())

		batch, err := Collect(ctx, src)
		if err != nil {
			im.logger.Error("import aborted", "source", src.Name(), "error", err)
			return nil, err
		}

		im.logger.Info("collected", "source", batch.Source, "records", len(batch.Records), "batch", batch.ID)
		batches = append(batches, batch)
	}

	logs := make([]store.NewLog, len(batches))
	for i, b := range batches {
		logs[i] = store.NewLog{UUID: b.ID, Source: b.Source, Records: b.Records}
	}

	saved, err := im.saver.SaveLogs(ctx, logs...)
	if err != nil {
		return nil, fmt.Errorf("saving logs: %w", err)
	}

	for i, l := range saved {
		result.Logs = append(result.Logs, summarize(l, batches[i]))
	}
	result.FinishedAt = time.Now()

	im.logger.Info("import complete",
		"logs", len(result.Logs),
		"records", result.TotalRecords(),
		"duration", result.FinishedAt.Sub(result.StartedAt))

	return result, nil
}

func summarize(l store.Log, b *Batch) Summary {
	s := Summary{
		LogID:   l.ID,
		UUID:    l.UUID,
		Source:  l.Source,
		Records: len(b.Records),
	}
	if n := len(b.Records); n > 0 {
		s.FirstTimestamp = b.Records[0].Timestamp
		s.LastTimestamp = b.Records[n-1].Timestamp
	}
	return s
}
