package parser

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp_IgnoresOffset(t *testing.T) {
	want := time.Date(2024, 10, 2, 17, 36, 2, 460*int(time.Millisecond), time.UTC)

	tests := []struct {
		name    string
		segment string
	}{
		{name: "pacific", segment: "10/2/2024 17:36:02.460-7"},
		{name: "bst", segment: "10/2/2024 17:36:02.460+1"},
		{name: "utc", segment: "10/2/2024 17:36:02.460+0"},
		{name: "no offset", segment: "10/2/2024 17:36:02.460"},
		{name: "two digit offset", segment: "10/2/2024 17:36:02.460-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.segment)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.segment, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.segment, got, want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.segment, got.Location())
			}
		})
	}
}

func TestParseTimestamp_PaddedAndUnpadded(t *testing.T) {
	tests := []struct {
		segment string
		want    time.Time
	}{
		{"1/5/2025 09:03:07.001", time.Date(2025, 1, 5, 9, 3, 7, int(time.Millisecond), time.UTC)},
		{"01/05/2025 09:03:07.001", time.Date(2025, 1, 5, 9, 3, 7, int(time.Millisecond), time.UTC)},
		{"12/31/2024 23:59:59.999-5", time.Date(2024, 12, 31, 23, 59, 59, 999*int(time.Millisecond), time.UTC)},
		{"2/29/2024 0:00:00.000", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			got, err := ParseTimestamp(tt.segment)
			if err != nil {
				t.Fatalf("ParseTimestamp() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		segment string
	}{
		{name: "empty", segment: ""},
		{name: "garbage", segment: "not a timestamp"},
		{name: "iso format", segment: "2024-10-02 17:36:02.460"},
		{name: "missing millis", segment: "10/2/2024 17:36:02"},
		{name: "too many fractional digits", segment: "10/2/2024 17:36:02.4601"},
		{name: "invalid month", segment: "13/2/2024 17:36:02.460"},
		{name: "invalid day", segment: "2/30/2024 17:36:02.460"},
		{name: "dash dates truncate early", segment: "10-2-2024 17:36:02.460"},
		{name: "only offset", segment: "-7"},
		{name: "unpadded minute", segment: "10/2/2024 17:3:02.460"},
		{name: "unpadded second", segment: "10/2/2024 17:36:2.460"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.segment)
			if err == nil {
				t.Fatalf("ParseTimestamp(%q) expected error", tt.segment)
			}
			var perr *time.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("ParseTimestamp(%q) error = %T, want *time.ParseError", tt.segment, err)
			}
		})
	}
}
