package engine

import "sync"

// eventQueue is an unbounded FIFO of merge events. Producers enqueue from any
// goroutine; the engine's run loop is the only consumer. A one-slot signal
// channel coalesces wake-ups so the loop can wait without busy-polling.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 32),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends ev and wakes the consumer. Returns false if the queue has
// been closed.
func (q *eventQueue) Enqueue(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.events = append(q.events, ev)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	q.events[0] = Event{} // release message slices to GC
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// Wait returns the wake-up channel; receive on it together with a context in
// a select, then drain with TryDequeue.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further enqueues and wakes any waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
