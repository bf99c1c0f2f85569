package calendar

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "calendar.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_InsertAssignsID(t *testing.T) {
	store := newTestStore(t)

	ev, err := store.Insert(context.Background(), Event{
		Title: "Standup",
		Start: time.Date(2025, 6, 23, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 23, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if ev.ID == "" {
		t.Error("expected a store-assigned id")
	}
}

func TestSQLiteStore_RoundTripPreservesOffset(t *testing.T) {
	store := newTestStore(t)
	loc := time.FixedZone("+0545", 5*3600+45*60)

	want := Event{
		Title:       "Standup",
		Start:       time.Date(2025, 6, 23, 14, 0, 0, 0, loc),
		End:         time.Date(2025, 6, 23, 15, 0, 0, 0, loc),
		Description: "daily sync",
		Location:    "Room 3",
		Attendees:   []string{"a@example.com", "b@example.com"},
	}

	inserted, err := store.Insert(context.Background(), want)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := store.Get(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Errorf("instant drifted: got %v-%v, want %v-%v", got.Start, got.End, want.Start, want.End)
	}
	if _, offset := got.Start.Zone(); offset != 5*3600+45*60 {
		t.Errorf("offset not preserved: %d", offset)
	}
	if got.Description != want.Description || got.Location != want.Location {
		t.Errorf("fields drifted: %+v", got)
	}
	if len(got.Attendees) != 2 || got.Attendees[0] != "a@example.com" {
		t.Errorf("attendees drifted: %v", got.Attendees)
	}
}

func TestSQLiteStore_ListWindowIsHalfOpen(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)

	// Ends exactly at window start: excluded. Starts exactly at window end: excluded.
	insert := func(title string, start, end time.Time) {
		t.Helper()
		if _, err := store.Insert(context.Background(), Event{Title: title, Start: start, End: end}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	insert("before", base.Add(-2*time.Hour), base)
	insert("inside", base.Add(time.Hour), base.Add(2*time.Hour))
	insert("after", base.Add(24*time.Hour), base.Add(25*time.Hour))

	events, err := store.List(context.Background(), base, base.Add(24*time.Hour), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "inside" {
		t.Errorf("unexpected window result: %+v", events)
	}
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 23, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Insert(context.Background(), Event{
			Title: "ev",
			Start: base.Add(time.Duration(i) * time.Hour),
			End:   base.Add(time.Duration(i)*time.Hour + 30*time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	events, err := store.List(context.Background(), base.Add(-time.Hour), base.Add(24*time.Hour), 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("limit ignored: got %d events", len(events))
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Get: expected ErrEventNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), "nope"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Delete: expected ErrEventNotFound, got %v", err)
	}
	if err := store.Update(context.Background(), Event{ID: "nope", Title: "x",
		Start: time.Now(), End: time.Now().Add(time.Hour)}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("Update: expected ErrEventNotFound, got %v", err)
	}
}
