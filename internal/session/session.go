// Package session holds the conversational state machine. A session is
// either idle or waiting for the user to confirm a staged bulk delete; the
// controller drives one utterance at a time through interpretation, the
// calendar gateway and the response composer.
package session

// PendingAction identifies what a confirmation would apply to.
type PendingAction int

const (
	// ActionNone means nothing is staged.
	ActionNone PendingAction = iota
	// ActionDeleteEvents means a bulk delete is staged and waiting for a
	// yes or no.
	ActionDeleteEvents
)

// DialogueSession is the per-conversation state. It is owned by a single
// Controller and is not safe for concurrent use.
type DialogueSession struct {
	AwaitingConfirmation bool
	PendingAction        PendingAction
	PendingIDs           []string
}

// StageDelete records a bulk delete awaiting confirmation.
func (s *DialogueSession) StageDelete(ids []string) {
	s.AwaitingConfirmation = true
	s.PendingAction = ActionDeleteEvents
	s.PendingIDs = ids
}

// Reset clears any pending action and returns the session to idle.
func (s *DialogueSession) Reset() {
	s.AwaitingConfirmation = false
	s.PendingAction = ActionNone
	s.PendingIDs = nil
}
