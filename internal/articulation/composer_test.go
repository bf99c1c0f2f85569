package articulation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ava/internal/perception"
)

type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestCompose_UsesModelWhenAvailable(t *testing.T) {
	client := &fakeClient{response: "Certainly sir, your meeting is booked for tomorrow at two."}
	c := NewComposer(client, Persona{UserName: "sir"}, nil)

	bag := &perception.EntityBag{Title: perception.StrPtr("Meeting")}
	got := c.Compose(context.Background(), `Event created: "Meeting".`, perception.IntentCreateEvent, bag)

	if got != client.response {
		t.Errorf("Compose() = %q, want model phrasing", got)
	}
	if client.calls != 1 {
		t.Errorf("expected one model call, got %d", client.calls)
	}
}

func TestCompose_ModelFailureFallsBackToTemplate(t *testing.T) {
	client := &fakeClient{err: errors.New("unreachable")}
	c := NewComposer(client, Persona{UserName: "Rajee"}, nil)

	bag := &perception.EntityBag{}
	got := c.Compose(context.Background(), `Event created: "Meeting".`, perception.IntentCreateEvent, bag)

	if !strings.Contains(got, "Rajee") || !strings.Contains(got, "Event created") {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestCompose_UnknownIntentSkipsModel(t *testing.T) {
	client := &fakeClient{response: "should not be used"}
	c := NewComposer(client, Persona{}, nil)

	c.Compose(context.Background(), "whatever", perception.IntentUnknown, nil)
	if client.calls != 0 {
		t.Errorf("model must not be called without intent/entities, got %d calls", client.calls)
	}
}

func TestCompose_Templates(t *testing.T) {
	c := NewComposer(nil, Persona{UserName: "boss"}, nil)

	tests := []struct {
		name   string
		result string
		want   string
	}{
		{"Created", `Event created: "X".`, "All set, boss."},
		{"Error", "Error creating event: boom", "I'm sorry, boss"},
		{"Updated", `Event updated: "X", changed title.`, "Done, boss."},
		{"Deleted", `Event deleted: "X".`, "Done, boss."},
		{"Empty Calendar", "No upcoming events found.", "calendar is clear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Compose(context.Background(), tt.result, perception.IntentUnknown, nil)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Compose(%q) = %q, want substring %q", tt.result, got, tt.want)
			}
		})
	}
}

func TestCompose_PassThrough(t *testing.T) {
	c := NewComposer(nil, Persona{}, nil)
	in := "I'm not sure how to help with that."
	if got := c.Compose(context.Background(), in, perception.IntentUnknown, nil); got != in {
		t.Errorf("Compose() = %q, want pass-through", got)
	}
}
