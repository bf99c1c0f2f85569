package timeutil

import (
	"errors"
	"testing"
	"time"
)

func kathmandu(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestNormalize_UTCConvertsToLocal(t *testing.T) {
	loc := kathmandu(t)

	got, err := Normalize("2025-06-23T08:15:00Z", loc)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := time.Date(2025, 6, 23, 8, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("instant changed: got %v, want %v", got, want)
	}
	if _, offset := got.Zone(); offset != 5*3600+45*60 {
		t.Errorf("expected +05:45 offset, got %d", offset)
	}
}

func TestNormalize_ExplicitOffsetPassedThrough(t *testing.T) {
	got, err := Normalize("2025-06-23T14:00:00+02:00", kathmandu(t))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if _, offset := got.Zone(); offset != 2*3600 {
		t.Errorf("expected +02:00 offset, got %d", offset)
	}
}

func TestNormalize_NaiveGetsLocalOffset(t *testing.T) {
	loc := kathmandu(t)
	got, err := Normalize("2025-06-23T14:00:00", loc)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := time.Date(2025, 6, 23, 14, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_RejectsFreeText(t *testing.T) {
	for _, raw := range []string{"tomorrow at 2pm", "next monday", "", "23/06/2025"} {
		_, err := Normalize(raw, time.UTC)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Normalize(%q): expected ParseError, got %v", raw, err)
		}
	}
}

func TestNormalize_RoundTripStability(t *testing.T) {
	loc := kathmandu(t)
	cases := []time.Time{
		time.Date(2025, 6, 23, 14, 0, 0, 0, loc),
		time.Date(2025, 12, 31, 23, 59, 59, 0, loc),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	for _, want := range cases {
		got, err := Normalize(FormatForStore(want), loc)
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", want, err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip drifted: got %v, want %v", got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	loc := kathmandu(t)
	got, err := NormalizeDate("2025-06-23", loc)
	if err != nil {
		t.Fatalf("NormalizeDate failed: %v", err)
	}
	want := time.Date(2025, 6, 23, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := NormalizeDate("June 23", loc); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDescribe(t *testing.T) {
	ts := time.Date(2025, 6, 23, 14, 0, 0, 0, time.UTC)
	if got, want := Describe(ts), "Monday, June 23, 2025 at 02:00 PM"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestDescribeRange_SameDayCollapses(t *testing.T) {
	start := time.Date(2025, 6, 23, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	got := DescribeRange(start, end)
	want := "Monday, June 23, 2025 at 02:00 PM until 03:00 PM"
	if got != want {
		t.Errorf("DescribeRange() = %q, want %q", got, want)
	}
}

func TestDayBounds(t *testing.T) {
	loc := kathmandu(t)
	start, end := DayBounds(time.Date(2025, 6, 23, 14, 30, 0, 0, loc))
	if !start.Equal(time.Date(2025, 6, 23, 0, 0, 0, 0, loc)) {
		t.Errorf("unexpected day start: %v", start)
	}
	if !end.Equal(time.Date(2025, 6, 23, 23, 59, 59, 0, loc)) {
		t.Errorf("unexpected day end: %v", end)
	}
}
