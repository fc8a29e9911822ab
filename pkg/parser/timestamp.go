package parser

import (
	"strings"
	"time"
)

// TimestampLayout is the Go layout for combat log timestamps once the zone
// offset has been cut off, e.g. "10/2/2024 17:36:02.460". Month, day and hour
// may be unpadded; minutes and seconds must have two digits.
const TimestampLayout = "1/2/2006 15:04:05.000"

// ParseTimestamp parses the timestamp segment of a combat log line.
//
// The client appends an unpadded zone offset such as "-7" or "+1". Everything
// from the first '-' or '+' onward is dropped without being validated, and
// the offset is never applied.
func ParseTimestamp(segment string) (time.Time, error) {
	if i := strings.IndexAny(segment, "-+"); i >= 0 {
		segment = segment[:i]
	}

	ts, err := time.Parse(TimestampLayout, segment)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
