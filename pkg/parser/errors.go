package parser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a line could not be parsed.
type ErrorKind int

const (
	// KindHeaderMalformed means the two-space separator is missing.
	KindHeaderMalformed ErrorKind = iota + 1
	// KindInvalidTimestamp means the timestamp segment did not match the layout.
	KindInvalidTimestamp
	// KindInvalidFieldsFormat means the fields segment is not valid CSV.
	KindInvalidFieldsFormat
	// KindNoRecords means the fields segment held no row at all.
	KindNoRecords
)

// String returns a stable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindHeaderMalformed:
		return "header_malformed"
	case KindInvalidTimestamp:
		return "invalid_timestamp"
	case KindInvalidFieldsFormat:
		return "invalid_fields_format"
	case KindNoRecords:
		return "no_records"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseError is returned by ParseRecord. Err holds the diagnostic from the
// time or CSV parser for the kinds that have one.
type ParseError struct {
	Kind ErrorKind
	Err  error
}

// Sentinels for errors.Is. They match any *ParseError of the same kind.
var (
	ErrHeaderMalformed     = &ParseError{Kind: KindHeaderMalformed}
	ErrInvalidTimestamp    = &ParseError{Kind: KindInvalidTimestamp}
	ErrInvalidFieldsFormat = &ParseError{Kind: KindInvalidFieldsFormat}
	ErrNoRecords           = &ParseError{Kind: KindNoRecords}
)

// ErrInvalidUTF8 is wrapped in a KindInvalidFieldsFormat error when a field is
// not valid UTF-8.
var ErrInvalidUTF8 = errors.New("field is not valid UTF-8")

func (e *ParseError) Error() string {
	// Base message per kind
	var msg string
	switch e.Kind {
	case KindHeaderMalformed:
		msg = "malformed header: no two-space separator"
	case KindInvalidTimestamp:
		msg = "invalid timestamp"
	case KindInvalidFieldsFormat:
		msg = "invalid fields format"
	case KindNoRecords:
		msg = "no fields present"
	default:
		msg = "parse error"
	}
	// Append the underlying diagnostic if any
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying diagnostic.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ParseError sentinel of the same kind.
func (e *ParseError) Is(target error) bool {
	// Only another *ParseError can match
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
