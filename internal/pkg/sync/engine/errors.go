package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveConversation is returned for operations that require an
	// open conversation (send, delete).
	ErrNoActiveConversation = errors.New("engine: no active conversation")

	// ErrEmptyMessage is returned when a send contains no text after
	// trimming.
	ErrEmptyMessage = errors.New("engine: empty message")

	// ErrNotStarted is returned for operations invoked before Start.
	ErrNotStarted = errors.New("engine: not started")
)

// SendError reports a failed delivery. The optimistic record identified by
// MessageID stays in the timeline, flagged provisional, so user input is
// never silently dropped.
type SendError struct {
	MessageID string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed for message %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// DeleteError aggregates the failures of a batch delete. The batch has no
// atomicity: deletions that succeeded stay applied.
type DeleteError struct {
	FailedIDs []string
	Errs      []error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("%d message deletion(s) failed: %v", len(e.FailedIDs), errors.Join(e.Errs...))
}

func (e *DeleteError) Unwrap() []error { return e.Errs }
