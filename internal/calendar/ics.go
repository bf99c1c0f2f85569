package calendar

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// maxOccurrencesPerEvent caps recurrence expansion so a malformed rule
// cannot flood the store.
const maxOccurrencesPerEvent = 1000

// ImportReport summarizes one ICS import.
type ImportReport struct {
	Parsed   int
	Inserted int
	Skipped  int
}

// ImportICS reads an ICS feed and inserts every occurrence intersecting
// [rangeStart, rangeEnd) into the store as a single event. Recurring events
// (RRULE, minus EXDATE exceptions) are expanded into individual occurrences
// so that reads and deletes see them one by one. Events that fail to parse
// are skipped, not fatal.
func ImportICS(ctx context.Context, r io.Reader, store Store, rangeStart, rangeEnd time.Time, loc *time.Location, logger *zap.Logger) (ImportReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	var report ImportReport

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return report, fmt.Errorf("failed to parse ICS feed: %w", err)
	}

	for _, ve := range cal.Events() {
		report.Parsed++

		ev, rawRule, exDates, err := parseVEvent(ve)
		if err != nil {
			logger.Warn("skipping unparseable VEVENT", zap.Error(err))
			report.Skipped++
			continue
		}

		occurrences := expandOccurrences(ev, rawRule, exDates, rangeStart, rangeEnd, logger)
		for _, occ := range occurrences {
			occ.Start = occ.Start.In(loc)
			occ.End = occ.End.In(loc)
			if _, err := store.Insert(ctx, occ); err != nil {
				return report, fmt.Errorf("failed to insert %q: %w", occ.Title, err)
			}
			report.Inserted++
		}
	}

	logger.Info("ICS import completed",
		zap.Int("parsed", report.Parsed),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func parseVEvent(ve *ical.VEvent) (Event, string, []time.Time, error) {
	var ev Event

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, "", nil, fmt.Errorf("missing or bad DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// DTEND is optional; default to an hour.
		end = start.Add(time.Hour)
	}
	ev.Start, ev.End = start, end

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if ev.Title == "" {
		ev.Title = "Untitled Event"
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	var rawRule string
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rawRule = p.Value
	}

	var exDates []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := time.Parse("20060102T150405Z", part); err == nil {
				exDates = append(exDates, t)
				continue
			}
			if t, err := time.Parse("20060102T150405", part); err == nil {
				exDates = append(exDates, t)
			}
		}
	}

	return ev, rawRule, exDates, nil
}

// expandOccurrences turns one VEVENT into its concrete occurrences within
// the range.
func expandOccurrences(ev Event, rawRule string, exDates []time.Time, rangeStart, rangeEnd time.Time, logger *zap.Logger) []Event {
	if rawRule == "" {
		if ev.Overlaps(rangeStart, rangeEnd) {
			return []Event{ev}
		}
		return nil
	}

	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		logger.Warn("failed to parse RRULE, keeping base occurrence only",
			zap.String("rrule", rawRule),
			zap.Error(err))
		if ev.Overlaps(rangeStart, rangeEnd) {
			return []Event{ev}
		}
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	starts := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		logger.Warn("recurrence expansion truncated",
			zap.String("title", ev.Title),
			zap.Int("cap", maxOccurrencesPerEvent))
		starts = starts[:maxOccurrencesPerEvent]
	}

	duration := ev.End.Sub(ev.Start)
	out := make([]Event, 0, len(starts))
	for _, start := range starts {
		occ := ev
		occ.Start = start
		occ.End = start.Add(duration)
		out = append(out, occ)
	}
	return out
}
