package perception

import "time"

// Intent is the classified category of calendar operation requested by an
// utterance. Exactly one Intent is produced per utterance.
type Intent string

const (
	IntentCreateEvent Intent = "create_event"
	IntentReadEvents  Intent = "read_events"
	IntentUpdateEvent Intent = "update_event"
	IntentDeleteEvent Intent = "delete_event"
	// IntentUnknown means no recognisable calendar intent was found.
	IntentUnknown Intent = "unknown"
)

// ParseIntent maps a raw intent string from the model to an Intent.
// Unrecognised strings become IntentUnknown, never propagated as-is.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentCreateEvent, IntentReadEvents, IntentUpdateEvent, IntentDeleteEvent:
		return Intent(raw)
	default:
		return IntentUnknown
	}
}

// EntityBag carries the structured parameters extracted from an utterance.
// Fields are optional and independent; a nil pointer means the entity was
// absent, which is distinct from an empty value. All timestamps are
// offset-aware by the time the bag leaves the interpreter.
type EntityBag struct {
	Title       *string
	EventID     *string
	Description *string
	Location    *string
	Attendees   []string
	StartTime   *time.Time
	EndTime     *time.Time
	// Date is a date-only anchor (midnight local), used as a fallback when
	// no explicit time range is given.
	Date *time.Time
}

// StrPtr returns a pointer to s. Convenience for building bags.
func StrPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
