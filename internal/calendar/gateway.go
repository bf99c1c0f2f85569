package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"ava/internal/perception"
	"ava/internal/timeutil"
)

const (
	// readLimit caps how many events a single read can return.
	readLimit = 50
	// defaultReadWindow is the read window when no time range is given.
	defaultReadWindow = 7 * 24 * time.Hour
	// titleSearchWindow bounds title lookups with no date anchor.
	titleSearchWindow = 30 * 24 * time.Hour
	// latenessGrace lets events be scheduled slightly in the past to absorb
	// speech-recognition and processing lag.
	latenessGrace = 5 * time.Minute
	// minDuration is the shortest event the gateway will create.
	minDuration = time.Minute
	// longDurationWarning is the duration above which creation warns.
	longDurationWarning = 7 * 24 * time.Hour
)

// Result is the outcome of one gateway operation. Message is always set and
// is safe to speak. Staged is non-empty only when a bulk delete is waiting
// for confirmation; the gateway itself never deletes more than one event
// without that round-trip.
type Result struct {
	Message       string
	Events        []Event
	Staged        []string
	ChangedFields []string
}

// NeedsConfirmation reports whether the result staged a bulk delete.
func (r *Result) NeedsConfirmation() bool {
	return len(r.Staged) > 0
}

// Gateway applies validated intent/entity pairs to the calendar store. Each
// call is independent; conversational state lives in the session layer.
type Gateway struct {
	store  Store
	logger *zap.Logger
}

// NewGateway creates a Gateway. logger may be nil.
func NewGateway(store Store, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, logger: logger}
}

// Execute dispatches on the intent. now anchors default windows and the
// lateness check.
func (g *Gateway) Execute(ctx context.Context, intent perception.Intent, bag perception.EntityBag, now time.Time) (*Result, error) {
	switch intent {
	case perception.IntentCreateEvent:
		return g.Create(ctx, bag, now)
	case perception.IntentReadEvents:
		return g.Read(ctx, bag, now)
	case perception.IntentUpdateEvent:
		return g.Update(ctx, bag, now)
	case perception.IntentDeleteEvent:
		return g.Delete(ctx, bag, now)
	default:
		return &Result{Message: "I'm not sure how to help with that."}, nil
	}
}

// Create inserts a new event. Conflicts with existing events are advisory:
// they are reported but never block the creation.
func (g *Gateway) Create(ctx context.Context, bag perception.EntityBag, now time.Time) (*Result, error) {
	if bag.StartTime == nil || bag.EndTime == nil {
		return nil, &ValidationError{Reason: "Start time and end time are required to create an event."}
	}
	start, end := *bag.StartTime, *bag.EndTime

	if !start.Before(end) {
		return nil, &ValidationError{Reason: "Start time must be before end time."}
	}
	if end.Sub(start) < minDuration {
		return nil, &ValidationError{Reason: "The event is too short: it must last at least a minute."}
	}

	var notes []string
	if start.Before(now.Add(-latenessGrace)) {
		notes = append(notes, "note that it starts in the past")
	}
	if end.Sub(start) > longDurationWarning {
		notes = append(notes, "note that it runs for more than a week")
	}

	overlapping, err := g.store.List(ctx, start, end, 0)
	if err != nil {
		return nil, &TransportError{Op: "list", Err: err}
	}
	if len(overlapping) > 0 {
		notes = append(notes, fmt.Sprintf("it overlaps with %s", titleList(overlapping)))
	}

	ev := Event{
		Title: "New Event",
		Start: start,
		End:   end,
	}
	if bag.Title != nil {
		ev.Title = *bag.Title
	}
	if bag.Description != nil {
		ev.Description = *bag.Description
	}
	if bag.Location != nil {
		ev.Location = *bag.Location
	}
	ev.Attendees = bag.Attendees

	created, err := g.store.Insert(ctx, ev)
	if err != nil {
		return nil, &TransportError{Op: "insert", Err: err}
	}

	g.logger.Info("event created",
		zap.String("id", created.ID),
		zap.String("title", created.Title),
		zap.Time("start", created.Start))

	msg := fmt.Sprintf("Event created: %q on %s.", created.Title, timeutil.DescribeRange(start, end))
	if len(notes) > 0 {
		msg += " Heads up: " + strings.Join(notes, "; ") + "."
	}
	return &Result{Message: msg, Events: []Event{created}}, nil
}

// Read lists events in the requested window. The window is, in priority
// order: the explicit start/end pair, the whole day around a lone start
// time, or the next seven days. An empty calendar is not an error.
func (g *Gateway) Read(ctx context.Context, bag perception.EntityBag, now time.Time) (*Result, error) {
	var start, end time.Time
	switch {
	case bag.StartTime != nil && bag.EndTime != nil:
		start, end = *bag.StartTime, *bag.EndTime
	case bag.StartTime != nil:
		start, end = timeutil.DayBounds(*bag.StartTime)
	case bag.Date != nil:
		start, end = timeutil.DayBounds(*bag.Date)
	default:
		start, end = now, now.Add(defaultReadWindow)
	}

	events, err := g.store.List(ctx, start, end, readLimit)
	if err != nil {
		return nil, &TransportError{Op: "list", Err: err}
	}
	if len(events) == 0 {
		return &Result{Message: "No upcoming events found."}, nil
	}

	var sb strings.Builder
	sb.WriteString("Here are your upcoming events: ")
	for i, ev := range events {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s at %s", ev.Title, timeutil.Describe(ev.Start))
	}
	sb.WriteString(".")
	return &Result{Message: sb.String(), Events: events}, nil
}

// Update applies the fields present in the bag to an existing event.
// Absent fields are untouched. When the start moves and no new end is given,
// the end shifts by the same delta so the duration is preserved.
func (g *Gateway) Update(ctx context.Context, bag perception.EntityBag, now time.Time) (*Result, error) {
	target, err := g.resolveTarget(ctx, bag, now)
	if err != nil {
		return nil, err
	}

	var changed []string
	if bag.Title != nil && *bag.Title != target.Title {
		target.Title = *bag.Title
		changed = append(changed, "title")
	}
	if bag.Description != nil && *bag.Description != target.Description {
		target.Description = *bag.Description
		changed = append(changed, "description")
	}
	if bag.Location != nil && *bag.Location != target.Location {
		target.Location = *bag.Location
		changed = append(changed, "location")
	}
	if bag.Attendees != nil && !slices.Equal(bag.Attendees, target.Attendees) {
		target.Attendees = bag.Attendees
		changed = append(changed, "attendees")
	}

	if bag.StartTime != nil && !bag.StartTime.Equal(target.Start) {
		delta := bag.StartTime.Sub(target.Start)
		target.Start = *bag.StartTime
		changed = append(changed, "start time")
		if bag.EndTime == nil {
			// Preserve the original duration.
			target.End = target.End.Add(delta)
			changed = append(changed, "end time")
		}
	}
	if bag.EndTime != nil && !bag.EndTime.Equal(target.End) {
		target.End = *bag.EndTime
		changed = append(changed, "end time")
	}

	if len(changed) == 0 {
		return nil, &ValidationError{Reason: "I couldn't find anything to change on that event."}
	}
	if !target.Start.Before(target.End) {
		return nil, &ValidationError{Reason: "Start time must be before end time."}
	}

	if err := g.store.Update(ctx, target); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, &NotFoundError{Target: fmt.Sprintf("event %q", target.ID)}
		}
		return nil, &TransportError{Op: "update", Err: err}
	}

	g.logger.Info("event updated",
		zap.String("id", target.ID),
		zap.Strings("changed", changed))

	msg := fmt.Sprintf("Event updated: %q, changed %s.", target.Title, strings.Join(changed, ", "))
	return &Result{Message: msg, Events: []Event{target}, ChangedFields: changed}, nil
}

// Delete removes events. Resolution strategies, mutually exclusive and tried
// in order: explicit id; title search; explicit time range (staged for
// confirmation when it matches more than one event); a bare date treated as
// the whole day.
func (g *Gateway) Delete(ctx context.Context, bag perception.EntityBag, now time.Time) (*Result, error) {
	switch {
	case bag.EventID != nil:
		return g.deleteByID(ctx, *bag.EventID)
	case bag.Title != nil:
		return g.deleteByTitle(ctx, bag, now)
	case bag.StartTime != nil && bag.EndTime != nil:
		return g.deleteRange(ctx, *bag.StartTime, *bag.EndTime)
	case bag.StartTime != nil:
		start, end := timeutil.DayBounds(*bag.StartTime)
		return g.deleteRange(ctx, start, end)
	case bag.Date != nil:
		start, end := timeutil.DayBounds(*bag.Date)
		return g.deleteRange(ctx, start, end)
	default:
		return nil, &ValidationError{Reason: "I need an event name, id, or a time range to delete something."}
	}
}

func (g *Gateway) deleteByID(ctx context.Context, id string) (*Result, error) {
	ev, err := g.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, &NotFoundError{Target: fmt.Sprintf("event %q", id)}
		}
		return nil, &TransportError{Op: "get", Err: err}
	}
	if err := g.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, &NotFoundError{Target: fmt.Sprintf("event %q", id)}
		}
		return nil, &TransportError{Op: "delete", Err: err}
	}
	g.logger.Info("event deleted", zap.String("id", id), zap.String("title", ev.Title))
	return &Result{Message: fmt.Sprintf("Event deleted: %q.", ev.Title)}, nil
}

func (g *Gateway) deleteByTitle(ctx context.Context, bag perception.EntityBag, now time.Time) (*Result, error) {
	matches, err := g.SearchByTitle(ctx, *bag.Title, titleAnchor(bag), now)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Target: fmt.Sprintf("any event matching %q", *bag.Title)}
	case 1:
		return g.deleteByID(ctx, matches[0].ID)
	default:
		// Ambiguity is never auto-resolved.
		return nil, &AmbiguousTargetError{Title: *bag.Title, Candidates: matches}
	}
}

func (g *Gateway) deleteRange(ctx context.Context, start, end time.Time) (*Result, error) {
	staged, err := g.StageBulkDelete(ctx, start, end)
	if err != nil {
		return nil, err
	}
	switch len(staged) {
	case 0:
		return &Result{Message: "No events found in that time range."}, nil
	case 1:
		// A single match needs no confirmation round-trip.
		return g.deleteByID(ctx, staged[0].ID)
	}

	ids := make([]string, len(staged))
	for i, ev := range staged {
		ids[i] = ev.ID
	}
	msg := fmt.Sprintf("I found %d events in that period: %s. Please confirm if you want to delete all these events.",
		len(staged), titleList(staged))
	return &Result{Message: msg, Events: staged, Staged: ids}, nil
}

// StageBulkDelete is the pure half of the bulk-delete protocol: it looks up
// the candidate set without mutating anything.
func (g *Gateway) StageBulkDelete(ctx context.Context, start, end time.Time) ([]Event, error) {
	events, err := g.store.List(ctx, start, end, 0)
	if err != nil {
		return nil, &TransportError{Op: "list", Err: err}
	}
	return events, nil
}

// CommitBulkDelete is the mutating half: it deletes the previously staged
// ids, assuming the caller has already obtained confirmation. Events that
// vanished between staging and commit are skipped, not errors.
func (g *Gateway) CommitBulkDelete(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := g.store.Delete(ctx, id)
		if err == nil {
			deleted++
			continue
		}
		if errors.Is(err, ErrEventNotFound) {
			g.logger.Warn("staged event already gone", zap.String("id", id))
			continue
		}
		return deleted, &TransportError{Op: "delete", Err: err}
	}
	g.logger.Info("bulk delete committed", zap.Int("deleted", deleted), zap.Int("staged", len(ids)))
	return deleted, nil
}

// SearchByTitle finds events whose title contains the requested title,
// case-insensitively. The search window is the anchor's day when given,
// otherwise the next thirty days.
func (g *Gateway) SearchByTitle(ctx context.Context, title string, anchor *time.Time, now time.Time) ([]Event, error) {
	var start, end time.Time
	if anchor != nil {
		start, end = timeutil.DayBounds(*anchor)
	} else {
		start, end = now, now.Add(titleSearchWindow)
	}

	events, err := g.store.List(ctx, start, end, 0)
	if err != nil {
		return nil, &TransportError{Op: "list", Err: err}
	}

	needle := strings.ToLower(title)
	var matches []Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), needle) {
			matches = append(matches, ev)
		}
	}
	return matches, nil
}

// resolveTarget finds the single event an update refers to.
func (g *Gateway) resolveTarget(ctx context.Context, bag perception.EntityBag, now time.Time) (Event, error) {
	if bag.EventID != nil {
		ev, err := g.store.Get(ctx, *bag.EventID)
		if err != nil {
			if errors.Is(err, ErrEventNotFound) {
				return Event{}, &NotFoundError{Target: fmt.Sprintf("event %q", *bag.EventID)}
			}
			return Event{}, &TransportError{Op: "get", Err: err}
		}
		return ev, nil
	}

	if bag.Title == nil {
		return Event{}, &ValidationError{Reason: "I need the event's name or id to update it."}
	}

	matches, err := g.SearchByTitle(ctx, *bag.Title, titleAnchor(bag), now)
	if err != nil {
		return Event{}, err
	}
	switch len(matches) {
	case 0:
		return Event{}, &NotFoundError{Target: fmt.Sprintf("any event matching %q", *bag.Title)}
	case 1:
		return matches[0], nil
	default:
		return Event{}, &AmbiguousTargetError{Title: *bag.Title, Candidates: matches}
	}
}

// titleAnchor picks the date anchor for a title search, if any.
func titleAnchor(bag perception.EntityBag) *time.Time {
	if bag.Date != nil {
		return bag.Date
	}
	return bag.StartTime
}

func titleList(events []Event) string {
	titles := make([]string, len(events))
	for i, ev := range events {
		titles[i] = fmt.Sprintf("%q at %s", ev.Title, ev.Start.Format("January 2, 03:04 PM"))
	}
	return strings.Join(titles, "; ")
}
