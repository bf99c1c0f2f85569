package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// SpeechInput yields one user utterance per call. Listen returns io.EOF when
// the input source is exhausted, which ends the conversation cleanly.
type SpeechInput interface {
	Listen(ctx context.Context) (string, error)
}

// SpeechOutput speaks one response to the user.
type SpeechOutput interface {
	Speak(ctx context.Context, text string) error
}

// ConsoleInput reads utterances line by line, typically from stdin.
type ConsoleInput struct {
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewConsoleInput creates a ConsoleInput reading from r. The "You: " prompt
// is written to promptW before each read; promptW may be nil.
func NewConsoleInput(r io.Reader, promptW io.Writer) *ConsoleInput {
	return &ConsoleInput{scanner: bufio.NewScanner(r), prompt: promptW}
}

// Listen blocks until a full line arrives. A cancelled context is only
// observed on the next call: the underlying read cannot be interrupted, so
// Ctrl-C during a read takes effect once the current line (or EOF) lands.
func (ci *ConsoleInput) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ci.prompt != nil {
		fmt.Fprint(ci.prompt, "You: ")
	}
	if !ci.scanner.Scan() {
		if err := ci.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return ci.scanner.Text(), nil
}

// ConsoleOutput writes responses as lines prefixed with the assistant name.
type ConsoleOutput struct {
	w io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

func (co *ConsoleOutput) Speak(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(co.w, "AVA: %s\n", text)
	return err
}
