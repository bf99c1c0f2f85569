package calendar

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleEventICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:one@test
DTSTART:20250623T140000Z
DTEND:20250623T150000Z
SUMMARY:Team Meeting
LOCATION:Room 3
END:VEVENT
END:VCALENDAR
`

const weeklyEventICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:weekly@test
DTSTART:20250602T090000Z
DTEND:20250602T093000Z
RRULE:FREQ=WEEKLY;COUNT=10
SUMMARY:Weekly Sync
END:VEVENT
END:VCALENDAR
`

func newImportStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestImportICS_SingleEvent(t *testing.T) {
	store := newImportStore(t)
	rangeStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	report, err := ImportICS(context.Background(), strings.NewReader(singleEventICS), store, rangeStart, rangeEnd, time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Parsed)
	assert.Equal(t, 1, report.Inserted)

	events, err := store.List(context.Background(), rangeStart, rangeEnd, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Team Meeting", events[0].Title)
	assert.Equal(t, "Room 3", events[0].Location)
	assert.Equal(t, time.Hour, events[0].Duration())
}

func TestImportICS_ExpandsRecurrence(t *testing.T) {
	store := newImportStore(t)
	rangeStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	report, err := ImportICS(context.Background(), strings.NewReader(weeklyEventICS), store, rangeStart, rangeEnd, time.UTC, nil)
	require.NoError(t, err)

	// Weekly from June 2 within June: Jun 2, 9, 16, 23, 30.
	assert.Equal(t, 5, report.Inserted)

	events, err := store.List(context.Background(), rangeStart, rangeEnd, 0)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for _, ev := range events {
		assert.Equal(t, "Weekly Sync", ev.Title)
		assert.Equal(t, 30*time.Minute, ev.Duration())
	}
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC).Unix(), events[0].Start.Unix())
}

func TestImportICS_EventOutsideRangeSkipped(t *testing.T) {
	store := newImportStore(t)
	rangeStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	report, err := ImportICS(context.Background(), strings.NewReader(singleEventICS), store, rangeStart, rangeEnd, time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
}

func TestImportICS_Garbage(t *testing.T) {
	store := newImportStore(t)
	_, err := ImportICS(context.Background(), strings.NewReader("not an ics feed"), store,
		time.Now(), time.Now().Add(time.Hour), time.UTC, nil)
	assert.Error(t, err)
}
