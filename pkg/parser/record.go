package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// separator splits the timestamp from the fields.
const separator = "  "

// ParseRecord parses a single combat log line. On failure the returned error
// is a *ParseError.
//
// Only the first row of the fields segment is used. A quoted field holding a
// newline would produce further rows; those are dropped. An unquoted carriage
// return ends a row just like a newline.
func ParseRecord(line string) (Record, error) {
	// Split on the first two-space separator
	head, tail, ok := strings.Cut(line, separator)
	if !ok {
		return Record{}, &ParseError{Kind: KindHeaderMalformed}
	}

	// Parse timestamp, dropping any zone offset
	ts, err := ParseTimestamp(head)
	if err != nil {
		return Record{}, &ParseError{Kind: KindInvalidTimestamp, Err: err}
	}

	fields, err := parseFields(tail)
	if err != nil {
		return Record{}, err
	}

	return Record{Timestamp: ts, Fields: fields}, nil
}

func parseFields(segment string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(splitOnCR(segment)))
	r.FieldsPerRecord = -1

	// Only the first row counts
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Kind: KindNoRecords}
	}
	if err != nil {
		return nil, &ParseError{Kind: KindInvalidFieldsFormat, Err: err}
	}

	// Reject fields that are not valid UTF-8
	for _, f := range row {
		if !utf8.ValidString(f) {
			return nil, &ParseError{Kind: KindInvalidFieldsFormat, Err: ErrInvalidUTF8}
		}
	}

	return row, nil
}

// splitOnCR turns each carriage return outside quotes into a newline.
// encoding/csv only ends a row at a newline and keeps a lone CR as data.
func splitOnCR(segment string) string {
	if !strings.Contains(segment, "\r") {
		return segment
	}

	b := []byte(segment)
	quoted := false
	for i, c := range b {
		switch {
		case c == '"':
			// A doubled quote toggles twice and leaves the state unchanged.
			quoted = !quoted
		case c == '\r' && !quoted:
			b[i] = '\n'
		}
	}
	return string(b)
}
