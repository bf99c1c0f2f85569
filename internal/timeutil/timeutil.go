// Package timeutil normalizes the timestamp strings that flow between the
// language layer and the calendar store. Every timestamp leaving this package
// carries a numeric UTC offset; naive timestamps do not travel further than
// the Normalize boundary.
package timeutil

import (
	"fmt"
	"time"
)

// ParseError reports a timestamp string that could not be normalized.
// Callers treat it as absence of the value, never as a fatal condition.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse timestamp %q: %v", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Layouts accepted for offset-less input. Free-text dates are rejected here;
// converting those to ISO form is the language layer's job.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// Normalize parses an ISO-8601 timestamp and anchors it to loc.
//
//   - a trailing "Z" is accepted and converted into loc,
//   - an explicit numeric offset is kept as-is,
//   - no offset at all is interpreted as local time in loc.
func Normalize(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		if raw[len(raw)-1] == 'Z' {
			return t.In(loc), nil
		}
		return t, nil
	}

	var lastErr error
	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, &ParseError{Raw: raw, Err: lastErr}
}

// NormalizeDate parses a date-only string (2006-01-02) as midnight in loc.
func NormalizeDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, &ParseError{Raw: raw, Err: err}
	}
	return t, nil
}

// FormatForStore renders t in the canonical wire form: ISO-8601 with a
// numeric offset, never a zone name.
func FormatForStore(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

// Describe renders t in the long spoken form used for responses only,
// e.g. "Monday, June 23, 2025 at 02:00 PM". Display only; never stored.
func Describe(t time.Time) string {
	return t.Format("Monday, January 2, 2006 at 03:04 PM")
}

// DescribeRange renders a start/end pair compactly, collapsing the date when
// both ends fall on the same day.
func DescribeRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return fmt.Sprintf("%s until %s", Describe(start), end.Format("03:04 PM"))
	}
	return fmt.Sprintf("%s until %s", Describe(start), Describe(end))
}

// DayBounds returns the inclusive bounds of the calendar day containing t,
// 00:00:00 through 23:59:59 in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, 23, 59, 59, 0, t.Location())
	return start, end
}
