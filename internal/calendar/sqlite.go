package calendar

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ava/internal/timeutil"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewSQLiteStore initializes the database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initialize creates the required tables.
func (s *SQLiteStore) initialize() error {
	// Timestamps are stored twice: the canonical offset-bearing string for
	// faithful reconstruction, and epoch seconds for range queries and
	// ordering (offset strings do not sort chronologically).
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		start_unix INTEGER NOT NULL,
		end_unix INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		attendees TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_unix);
	CREATE INDEX IF NOT EXISTS idx_events_end ON events(end_unix);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert stores a new event and assigns it an id.
func (s *SQLiteStore) Insert(ctx context.Context, ev Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = uuid.NewString()
	attendees, err := json.Marshal(ev.Attendees)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode attendees: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, start_at, end_at, start_unix, end_unix, description, location, attendees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Title,
		timeutil.FormatForStore(ev.Start), timeutil.FormatForStore(ev.End),
		ev.Start.Unix(), ev.End.Unix(),
		ev.Description, ev.Location, string(attendees))
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return ev, nil
}

// List returns events intersecting [start, end), ordered by start ascending.
// limit <= 0 means no limit.
func (s *SQLiteStore) List(ctx context.Context, start, end time.Time, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, title, start_at, end_at, description, location, attendees
		FROM events
		WHERE start_unix < ? AND end_unix > ?
		ORDER BY start_unix ASC`
	args := []any{end.Unix(), start.Unix()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Get returns the event with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, start_at, end_at, description, location, attendees
		FROM events WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return Event{}, ErrEventNotFound
	}
	return ev, err
}

// Update replaces all mutable fields of an existing event.
func (s *SQLiteStore) Update(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attendees, err := json.Marshal(ev.Attendees)
	if err != nil {
		return fmt.Errorf("failed to encode attendees: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, start_at = ?, end_at = ?, start_unix = ?, end_unix = ?,
		    description = ?, location = ?, attendees = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		ev.Title,
		timeutil.FormatForStore(ev.Start), timeutil.FormatForStore(ev.End),
		ev.Start.Unix(), ev.End.Unix(),
		ev.Description, ev.Location, string(attendees), ev.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes an event by id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var ev Event
	var startAt, endAt, attendees string
	if err := row.Scan(&ev.ID, &ev.Title, &startAt, &endAt, &ev.Description, &ev.Location, &attendees); err != nil {
		if err == sql.ErrNoRows {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("failed to scan event: %w", err)
	}

	var err error
	if ev.Start, err = time.Parse(time.RFC3339, startAt); err != nil {
		return Event{}, fmt.Errorf("corrupt start time %q: %w", startAt, err)
	}
	if ev.End, err = time.Parse(time.RFC3339, endAt); err != nil {
		return Event{}, fmt.Errorf("corrupt end time %q: %w", endAt, err)
	}
	if err := json.Unmarshal([]byte(attendees), &ev.Attendees); err != nil {
		return Event{}, fmt.Errorf("corrupt attendees %q: %w", attendees, err)
	}
	return ev, nil
}
