package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Log is an imported combat log.
type Log struct {
	ID         int64     `json:"id"`
	UUID       string    `json:"uuid"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
	EventCount int       `json:"event_count"`
}

// NewLog is a log to be saved together with its records.
type NewLog struct {
	UUID    string
	Source  string
	Records []parser.Record
}

// SaveLogs stores every log and its records in a single transaction.
// Either all logs are saved or none are.
func (s *Store) SaveLogs(ctx context.Context, logs ...NewLog) ([]Log, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	importedAt := s.now().UTC()
	saved := make([]Log, 0, len(logs))

	for _, l := range logs {
		id, err := insertLog(ctx, tx, l, importedAt)
		if err != nil {
			return nil, err
		}
		if err := insertEvents(ctx, tx, id, l.Records); err != nil {
			return nil, fmt.Errorf("saving events for log %s: %w", l.UUID, err)
		}
		saved = append(saved, Log{
			ID:         id,
			UUID:       l.UUID,
			Source:     l.Source,
			ImportedAt: importedAt.Truncate(time.Millisecond),
			EventCount: len(l.Records),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return saved, nil
}

func insertLog(ctx context.Context, tx *sql.Tx, l NewLog, importedAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO logs (uuid, source, imported_at) VALUES (?, ?, ?)",
		l.UUID, l.Source, importedAt.Format(TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("inserting log %s: %w", l.UUID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading log id: %w", err)
	}
	return id, nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, logID int64, records []parser.Record) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO events (timestamp, fields, fk_log_id) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		fields, err := EncodeFields(r.Fields)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, r.Timestamp.Format(TimeLayout), fields, logID); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}
	return nil
}

const selectLogs = `
SELECT l.id, l.uuid, l.source, l.imported_at,
       (SELECT COUNT(*) FROM events e WHERE e.fk_log_id = l.id)
FROM logs l`

// ListLogs returns every stored log, oldest first.
func (s *Store) ListLogs(ctx context.Context) ([]Log, error) {
	rows, err := s.db.QueryContext(ctx, selectLogs+" ORDER BY l.id")
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return logs, nil
}

// GetLog looks a log up by numeric id or by UUID.
// Returns ErrLogNotFound when nothing matches.
func (s *Store) GetLog(ctx context.Context, ref string) (*Log, error) {
	var row *sql.Row
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		row = s.db.QueryRowContext(ctx, selectLogs+" WHERE l.id = ?", id)
	} else {
		row = s.db.QueryRowContext(ctx, selectLogs+" WHERE l.uuid = ?", ref)
	}

	l, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLog removes a log and, through the foreign key, its events.
func (s *Store) DeleteLog(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting log %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting log %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrLogNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (Log, error) {
	var (
		l          Log
		importedAt string
	)
	if err := row.Scan(&l.ID, &l.UUID, &l.Source, &importedAt, &l.EventCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Log{}, err
		}
		return Log{}, fmt.Errorf("scanning log: %w", err)
	}

	ts, err := time.Parse(TimeLayout, importedAt)
	if err != nil {
		return Log{}, fmt.Errorf("parsing imported_at %q: %w", importedAt, err)
	}
	l.ImportedAt = ts
	return l, nil
}

// EncodeFields serializes fields as a JSON array of strings.
func EncodeFields(fields []string) (string, error) {
	if fields == nil {
		fields = []string{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeFields reverses EncodeFields.
func DecodeFields(s string) ([]string, error) {
	var fields []string
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []string{}
	}
	return fields, nil
}
