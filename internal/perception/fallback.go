package perception

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Deterministic keyword sets, checked in fixed priority order. The order is
// load-bearing: an utterance matching several sets gets the first one.
var (
	createKeywords = []string{"schedule", "create", "add", "book", "meeting"}
	readKeywords   = []string{"show", "list", "what", "events"}
	updateKeywords = []string{"update", "change", "modify"}
	deleteKeywords = []string{"delete", "cancel", "remove"}
)

var (
	clockRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	dateRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ExtractFallback performs deterministic keyword and regex based intent and
// entity extraction. It is the degraded path used whenever the model call
// fails or returns unusable output. It never fails itself; the worst case is
// IntentUnknown with an empty bag.
func ExtractFallback(utterance string, now time.Time) (Intent, EntityBag) {
	lower := strings.ToLower(utterance)

	intent := IntentUnknown
	switch {
	case containsAny(lower, createKeywords):
		intent = IntentCreateEvent
	case containsAny(lower, readKeywords):
		intent = IntentReadEvents
	case containsAny(lower, updateKeywords):
		intent = IntentUpdateEvent
	case containsAny(lower, deleteKeywords):
		intent = IntentDeleteEvent
	}
	if intent == IntentUnknown {
		return IntentUnknown, EntityBag{}
	}

	var bag EntityBag

	day := extractDay(lower, now)
	times := clockRe.FindAllStringSubmatch(utterance, -1)

	switch intent {
	case IntentCreateEvent:
		bag.Title = StrPtr(fallbackTitle(lower))
		start, end := fallbackTimes(times, day)
		bag.StartTime = TimePtr(start)
		bag.EndTime = TimePtr(end)
	default:
		// No defaults outside create: only pass through what the text
		// actually says, so reads and deletes are not silently scoped.
		if len(times) >= 1 {
			bag.StartTime = TimePtr(atClock(times[0], day))
		}
		if len(times) >= 2 {
			bag.EndTime = TimePtr(atClock(times[1], day))
		}
		if bag.StartTime == nil && mentionsDay(lower) {
			midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
			bag.Date = TimePtr(midnight)
		}
	}

	return intent, bag
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func fallbackTitle(lower string) string {
	switch {
	case strings.Contains(lower, "meeting"):
		return "Meeting"
	case strings.Contains(lower, "appointment"):
		return "Appointment"
	default:
		return "Event"
	}
}

// fallbackTimes maps the clock matches found in the utterance, in textual
// order, onto a start/end pair. First match is the start, second the end.
// With one match the event runs an hour; with none it defaults to 14:00-15:00.
func fallbackTimes(matches [][]string, day time.Time) (time.Time, time.Time) {
	switch len(matches) {
	case 0:
		start := time.Date(day.Year(), day.Month(), day.Day(), 14, 0, 0, 0, day.Location())
		return start, start.Add(time.Hour)
	case 1:
		start := atClock(matches[0], day)
		return start, start.Add(time.Hour)
	default:
		return atClock(matches[0], day), atClock(matches[1], day)
	}
}

// atClock resolves one clock regex match onto the given day.
func atClock(match []string, day time.Time) time.Time {
	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}

	// Noon and midnight are the irregular cases of the 12-hour clock.
	meridiem := strings.ToLower(match[3])
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// extractDay finds the day the utterance talks about: an explicit
// "23 June 2025" style date, a relative day word, or today.
func extractDay(lower string, now time.Time) time.Time {
	if m := dateRe.FindStringSubmatch(lower); m != nil {
		dayNum, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month := monthsByName[m[2]]
		return time.Date(year, month, dayNum, 0, 0, 0, 0, now.Location())
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1)
	}
	return now
}

func mentionsDay(lower string) bool {
	return dateRe.MatchString(lower) ||
		strings.Contains(lower, "today") ||
		strings.Contains(lower, "tomorrow")
}
