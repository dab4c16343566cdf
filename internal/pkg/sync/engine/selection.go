package engine

import (
	"context"
	"sync"
)

// SelectionController scopes per-conversation resources (the poller and the
// push relevance filter) to the currently open conversation.
//
// Two states: idle (no conversation open) and active(contactID). Activation
// starts the scoped task under a cancellable context; any transition out of
// active (switching contacts, back navigation, engine shutdown) cancels that
// context, so the acquire/release pairing holds on every exit path.
type SelectionController struct {
	mu     sync.Mutex
	active string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSelectionController starts in the idle state.
func NewSelectionController() *SelectionController {
	return &SelectionController{}
}

// Activate transitions to active(contactID), tearing down any previous
// activation first. run is started on its own goroutine and must return when
// its context is cancelled.
func (sc *SelectionController) Activate(parent context.Context, contactID string, run func(ctx context.Context)) {
	sc.Deactivate()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	sc.mu.Lock()
	sc.active = contactID
	sc.cancel = cancel
	sc.done = done
	sc.mu.Unlock()

	go func() {
		defer close(done)
		run(ctx)
	}()
}

// Deactivate transitions to idle, cancelling the scoped task and waiting for
// it to exit. Safe to call when already idle.
func (sc *SelectionController) Deactivate() {
	sc.mu.Lock()
	cancel := sc.cancel
	done := sc.done
	sc.active = ""
	sc.cancel = nil
	sc.done = nil
	sc.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Active returns the open conversation's contact id, or "" when idle.
func (sc *SelectionController) Active() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.active
}
