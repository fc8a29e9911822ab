package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

// DefaultEventLimit caps ListEvents when no limit is given.
const DefaultEventLimit = 1000

// Event is a stored record.
type Event struct {
	ID        int64
	LogID     int64
	Timestamp time.Time
	Fields    []string
}

// MarshalJSON renders the timestamp without a zone, like parser.Record.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        int64    `json:"id"`
		LogID     int64    `json:"log_id"`
		Timestamp string   `json:"timestamp"`
		Fields    []string `json:"fields"`
	}{e.ID, e.LogID, e.Timestamp.Format(parser.NaiveLayout), e.Fields})
}

// EventQuery pages through the events of a log.
type EventQuery struct {
	Offset int
	// Limit <= 0 selects DefaultEventLimit.
	Limit int
}

// ListEvents returns the events of a log in line order.
func (s *Store) ListEvents(ctx context.Context, logID int64, q EventQuery) ([]Event, error) {
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", q.Offset)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, fields FROM events WHERE fk_log_id = ? ORDER BY id LIMIT ? OFFSET ?",
		logID, limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing events of log %d: %w", logID, err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e      Event
			ts     string
			fields string
		)
		if err := rows.Scan(&e.ID, &ts, &fields); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.LogID = logID

		if e.Timestamp, err = time.Parse(TimeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing event %d timestamp %q: %w", e.ID, ts, err)
		}
		if e.Fields, err = DecodeFields(fields); err != nil {
			return nil, fmt.Errorf("decoding event %d fields: %w", e.ID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events of log %d: %w", logID, err)
	}
	return events, nil
}
