package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// The gateway's error taxonomy. Validation, not-found and ambiguity errors
// are informative and spoken to the user verbatim; transport errors are
// logged and converted into a generic apology by the session layer.

// ValidationError reports bad or missing input. Always user-correctable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports a referenced event that does not exist.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("I couldn't find %s.", e.Target)
}

// AmbiguousTargetError reports an under-specified event reference. The
// candidate list is included so the user can disambiguate; the gateway never
// guesses.
type AmbiguousTargetError struct {
	Title      string
	Candidates []Event
}

func (e *AmbiguousTargetError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d events matching %q. Please be more specific: ", len(e.Candidates), e.Title)
	for i, ev := range e.Candidates {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s on %s", ev.Title, ev.Start.Format("January 2 at 03:04 PM"))
	}
	return sb.String()
}

// TransportError wraps a failure of the external store itself.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("calendar store %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrEventNotFound is the sentinel a Store returns when an event id does not
// exist. The gateway converts it into a NotFoundError with context.
var ErrEventNotFound = errors.New("event not found")
