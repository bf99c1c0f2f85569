package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ava/internal/timeutil"
)

const interpreterSystemPrompt = `You are the command interpreter of a voice-driven calendar assistant.
For the given spoken command you must:
1. Determine the intent: one of create_event, read_events, update_event, delete_event.
2. Extract the relevant entities. Recognised keys: title, start_time, end_time,
   event_id, description, location, attendees, date.
3. Respond with a single JSON object and nothing else. No prose, no markdown.

Output contract:
{"intent": "create_event", "entities": {"title": "Team Meeting", "start_time": "2025-06-23T14:00:00+05:45", "end_time": "2025-06-23T15:00:00+05:45"}}

If the command is unclear or not about the calendar:
{"intent": null, "entities": {}}

Rules:
- start_time, end_time: ISO-8601 with a NUMERIC UTC offset (e.g. "+05:45").
  Never use timezone names such as "Asia/Kathmandu".
- date: date only, YYYY-MM-DD.
- attendees: a JSON array of email addresses.
- Resolve relative phrases ("tomorrow", "next friday") against the current
  local date and time given below.`

// Interpreter turns a recognised utterance into a normalized intent and
// entity bag. The model path is tried first; any transport or parse failure
// degrades wholesale to the deterministic fallback extractor. Interpret never
// returns an error and never retries the model call.
type Interpreter struct {
	client LLMClient
	loc    *time.Location
	logger *zap.Logger
}

// NewInterpreter creates an Interpreter. client may be nil, in which case
// every utterance takes the fallback path. loc defaults to time.Local and
// logger to a nop logger.
func NewInterpreter(client LLMClient, loc *time.Location, logger *zap.Logger) *Interpreter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{client: client, loc: loc, logger: logger}
}

// wireCommand is the logical JSON contract exchanged with the model.
type wireCommand struct {
	Intent   *string        `json:"intent"`
	Entities map[string]any `json:"entities"`
}

// Interpret classifies one utterance. now anchors relative phrases and the
// fallback extractor; it must already be in the interpreter's location.
func (in *Interpreter) Interpret(ctx context.Context, utterance string, now time.Time) (Intent, EntityBag) {
	if in.client == nil {
		return ExtractFallback(utterance, now)
	}

	raw, err := in.client.CompleteWithSystem(ctx, interpreterSystemPrompt, in.buildUserPrompt(utterance, now))
	if err != nil {
		in.logger.Warn("model call failed, using fallback extractor",
			zap.String("utterance", utterance),
			zap.Error(err))
		return ExtractFallback(utterance, now)
	}

	cleaned := extractJSON(raw)
	var cmd wireCommand
	if cleaned == "" || json.Unmarshal([]byte(cleaned), &cmd) != nil {
		in.logger.Warn("unparseable model output, using fallback extractor",
			zap.String("raw", raw),
			zap.String("cleaned", cleaned))
		return ExtractFallback(utterance, now)
	}

	intent := IntentUnknown
	if cmd.Intent != nil {
		intent = ParseIntent(*cmd.Intent)
	}
	return intent, in.buildBag(cmd.Entities)
}

func (in *Interpreter) buildUserPrompt(utterance string, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Local timezone: %s\n", in.loc.String())
	fmt.Fprintf(&sb, "Current local date and time: %s (%s)\n",
		timeutil.FormatForStore(now), now.Weekday())
	fmt.Fprintf(&sb, "\nUser command: %s\n", utterance)
	return sb.String()
}

// buildBag validates the raw entity mapping into a typed EntityBag.
// A value that fails normalization is dropped, never fatal.
func (in *Interpreter) buildBag(entities map[string]any) EntityBag {
	var bag EntityBag
	for key, value := range entities {
		switch key {
		case "title":
			bag.Title = stringValue(value)
		case "event_id":
			bag.EventID = stringValue(value)
		case "description":
			bag.Description = stringValue(value)
		case "location":
			bag.Location = stringValue(value)
		case "attendees":
			bag.Attendees = stringSlice(value)
		case "start_time":
			bag.StartTime = in.timeValue(key, value)
		case "end_time":
			bag.EndTime = in.timeValue(key, value)
		case "date":
			bag.Date = in.dateValue(value)
		}
	}
	return bag
}

func (in *Interpreter) timeValue(key string, value any) *time.Time {
	s := stringValue(value)
	if s == nil {
		return nil
	}
	t, err := timeutil.Normalize(*s, in.loc)
	if err != nil {
		in.logger.Debug("dropping unparseable entity",
			zap.String("key", key),
			zap.String("value", *s),
			zap.Error(err))
		return nil
	}
	return &t
}

func (in *Interpreter) dateValue(value any) *time.Time {
	s := stringValue(value)
	if s == nil {
		return nil
	}
	t, err := timeutil.NormalizeDate(*s, in.loc)
	if err != nil {
		in.logger.Debug("dropping unparseable entity",
			zap.String("key", "date"),
			zap.String("value", *s),
			zap.Error(err))
		return nil
	}
	return &t
}

func stringValue(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := stringValue(v); s != nil {
			return []string{*s}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s := stringValue(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
