// Package articulation turns raw operation results into the sentences the
// assistant actually speaks. The model is asked for a natural phrasing when
// possible; static templates guarantee the user always hears something, even
// under total model failure.
package articulation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ava/internal/perception"
)

// Persona configures how responses are addressed and phrased.
type Persona struct {
	// UserName is how the assistant addresses the user ("sir", a first
	// name, ...).
	UserName string
	// Language is the response language, e.g. "English".
	Language string
	// Tone is the desired register, e.g. "friendly and concise".
	Tone string
}

// Composer renders spoken responses.
type Composer struct {
	client  perception.LLMClient
	persona Persona
	logger  *zap.Logger
}

// NewComposer creates a Composer. client may be nil; logger may be nil.
func NewComposer(client perception.LLMClient, persona Persona, logger *zap.Logger) *Composer {
	if persona.UserName == "" {
		persona.UserName = "there"
	}
	if persona.Language == "" {
		persona.Language = "English"
	}
	if persona.Tone == "" {
		persona.Tone = "friendly and concise"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{client: client, persona: persona, logger: logger}
}

// Compose turns an operation result into spoken text. intent and bag
// describe what the user asked for; when they are unavailable, or the model
// call fails, the static templates take over.
func (c *Composer) Compose(ctx context.Context, result string, intent perception.Intent, bag *perception.EntityBag) string {
	if c.client != nil && intent != perception.IntentUnknown && bag != nil {
		if text, err := c.client.CompleteWithSystem(ctx, c.systemPrompt(), c.userPrompt(result, intent, bag)); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		} else if err != nil {
			c.logger.Warn("response phrasing failed, using template", zap.Error(err))
		}
	}
	return c.template(result)
}

func (c *Composer) systemPrompt() string {
	return fmt.Sprintf(`You phrase calendar assistant responses as spoken text.
Rules:
- Open by addressing the user as %q.
- Respond in %s with a %s tone.
- For created events, mention the title, date and time.
- For updates and deletions, say what was done.
- Do not apologise unless the result below indicates an error.
- Reply with the sentence only, no markup.`, c.persona.UserName, c.persona.Language, c.persona.Tone)
}

func (c *Composer) userPrompt(result string, intent perception.Intent, bag *perception.EntityBag) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Action: %s\n", intent)
	if bag.Title != nil {
		fmt.Fprintf(&sb, "Event title: %s\n", *bag.Title)
	}
	fmt.Fprintf(&sb, "Result: %s\n", result)
	return sb.String()
}

// template is the deterministic fallback, keyed by substring match on the
// result text.
func (c *Composer) template(result string) string {
	lower := strings.ToLower(result)
	switch {
	case strings.Contains(lower, "created"):
		return fmt.Sprintf("All set, %s. %s", c.persona.UserName, result)
	case strings.Contains(lower, "error"):
		return fmt.Sprintf("I'm sorry, %s, something went wrong with your calendar request.", c.persona.UserName)
	case strings.Contains(lower, "updated"):
		return fmt.Sprintf("Done, %s. %s", c.persona.UserName, result)
	case strings.Contains(lower, "deleted"):
		return fmt.Sprintf("Done, %s. %s", c.persona.UserName, result)
	case strings.Contains(lower, "no upcoming events"):
		return fmt.Sprintf("Your calendar is clear, %s.", c.persona.UserName)
	default:
		return result
	}
}
