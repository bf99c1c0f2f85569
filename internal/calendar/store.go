package calendar

import (
	"context"
	"time"
)

// Store is the narrow contract the gateway needs from a calendar backend.
// List returns events intersecting [start, end) ordered by start time
// ascending; Get and Delete return ErrEventNotFound for unknown ids.
type Store interface {
	Insert(ctx context.Context, ev Event) (Event, error)
	List(ctx context.Context, start, end time.Time, limit int) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, ev Event) error
	Delete(ctx context.Context, id string) error
}
