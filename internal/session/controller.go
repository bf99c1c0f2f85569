package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"ava/internal/articulation"
	"ava/internal/calendar"
	"ava/internal/perception"
)

// Words that resolve a pending confirmation. Anything else is treated as a
// fresh request and silently cancels the staged action.
var (
	affirmatives = map[string]bool{
		"yes":        true,
		"confirm":    true,
		"delete all": true,
		"proceed":    true,
	}
	negatives = map[string]bool{
		"no":     true,
		"cancel": true,
		"abort":  true,
	}
	exitWords = map[string]bool{
		"exit":    true,
		"quit":    true,
		"goodbye": true,
	}
)

const (
	unknownReply   = "I'm sorry, I couldn't understand what you want me to do with your calendar."
	transportReply = "I'm sorry, I couldn't reach your calendar just now. Please try again."
	cancelReply    = "Okay, no events were deleted."
	farewellReply  = "Goodbye!"
)

// Controller wires perception, the calendar gateway and articulation into a
// single turn-based conversation.
type Controller struct {
	interpreter *perception.Interpreter
	gateway     *calendar.Gateway
	composer    *articulation.Composer
	session     *DialogueSession
	logger      *zap.Logger
	now         func() time.Time
}

// NewController creates a Controller. loc is the session's timezone: every
// turn is anchored at the current time in loc, so relative phrases resolve
// against the configured zone rather than the process-local one. loc defaults
// to time.Local and logger to a nop logger.
func NewController(interpreter *perception.Interpreter, gateway *calendar.Gateway, composer *articulation.Composer, loc *time.Location, logger *zap.Logger) *Controller {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		interpreter: interpreter,
		gateway:     gateway,
		composer:    composer,
		session:     &DialogueSession{},
		logger:      logger,
		now:         func() time.Time { return time.Now().In(loc) },
	}
}

// Run drives the conversation loop until the input is exhausted, an exit
// word is heard, or the context is cancelled.
func (c *Controller) Run(ctx context.Context, in SpeechInput, out SpeechOutput) error {
	for {
		text, err := in.Listen(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if exitWords[normalize(text)] {
			return out.Speak(ctx, farewellReply)
		}
		reply := c.HandleUtterance(ctx, text, c.now())
		if err := out.Speak(ctx, reply); err != nil {
			return err
		}
	}
}

// HandleUtterance processes one utterance and returns the spoken response.
// now anchors relative time resolution for the whole turn.
func (c *Controller) HandleUtterance(ctx context.Context, text string, now time.Time) string {
	if c.session.AwaitingConfirmation {
		if reply, done := c.resolveConfirmation(ctx, text); done {
			return reply
		}
		// Anything else abandons the staged action and is handled as a
		// fresh request below.
		c.session.Reset()
	}

	intent, bag := c.interpreter.Interpret(ctx, text, now)
	if intent == perception.IntentUnknown {
		return unknownReply
	}

	result, err := c.gateway.Execute(ctx, intent, bag, now)
	if err != nil {
		return c.speakError(err)
	}
	if result.NeedsConfirmation() {
		c.session.StageDelete(result.Staged)
		return result.Message
	}
	return c.composer.Compose(ctx, result.Message, intent, &bag)
}

// resolveConfirmation handles an utterance while a bulk delete is staged.
// done is false when the utterance is neither a yes nor a no.
func (c *Controller) resolveConfirmation(ctx context.Context, text string) (reply string, done bool) {
	switch word := normalize(text); {
	case affirmatives[word]:
		ids := c.session.PendingIDs
		c.session.Reset()
		n, err := c.gateway.CommitBulkDelete(ctx, ids)
		if err != nil {
			c.logger.Error("bulk delete failed", zap.Error(err))
			return transportReply, true
		}
		c.logger.Info("bulk delete committed", zap.Int("events", n))
		return c.composer.Compose(ctx, fmt.Sprintf("Deleted %d events.", n), perception.IntentDeleteEvent, &perception.EntityBag{}), true
	case negatives[word]:
		c.session.Reset()
		return cancelReply, true
	default:
		return "", false
	}
}

// speakError maps gateway errors onto spoken responses. Informative errors
// carry their own user-facing wording; transport failures get a generic
// apology so internals never leak into speech.
func (c *Controller) speakError(err error) string {
	var (
		vErr *calendar.ValidationError
		nErr *calendar.NotFoundError
		aErr *calendar.AmbiguousTargetError
		tErr *calendar.TransportError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &nErr), errors.As(err, &aErr):
		return err.Error()
	case errors.As(err, &tErr):
		c.logger.Error("calendar transport failure", zap.Error(err))
		return transportReply
	default:
		c.logger.Error("unexpected gateway failure", zap.Error(err))
		return "I'm sorry, something went wrong with your calendar request."
	}
}

// normalize lowercases, trims whitespace and strips trailing punctuation so
// "Yes!" and "yes" resolve the same way.
func normalize(text string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), ".!?")
}
