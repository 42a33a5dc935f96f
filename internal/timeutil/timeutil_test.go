package timeutil

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{90000, "25:00:00"}, // hours are not wrapped at 24
		{360000, "100:00:00"},
	}

	for _, tc := range tests {
		if got := Format(tc.seconds); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
	}{
		{"00:00:00", 0},
		{"01:00:00", 3600},
		{"01:30", 5400}, // HH:MM, seconds assumed zero
		{"0:0:5", 5},
		{"10:20:30", 37230},
		{"100:00:00", 360000},
	}

	for _, tc := range tests {
		got, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "12", "ab:cd:ef", "1:2:3:4", "12:", ":30", "-1:00:00", "1.5:00"} {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("Parse(%q): expected ErrInvalidTime, got %v", input, err)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 59, 60, 3599, 3600, 3661, 86399, 86400, 123456} {
		got, err := Parse(Format(n))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) returned error: %v", n, err)
		}
		if got != n {
			t.Errorf("Parse(Format(%d)) = %d", n, got)
		}
	}
}

func TestShort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0h 0m"},
		{1800, "0h 30m"},
		{3600, "1h 0m"},
		{5400, "1h 30m"},
		{36059, "10h 0m"},
	}

	for _, tc := range tests {
		if got := Short(tc.seconds); got != tc.want {
			t.Errorf("Short(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
