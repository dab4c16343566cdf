// Package engine implements the conversation synchronization engine.
//
// Up to four independent producers observe the same conversation state: the
// initial loader, the poller, the push listener, and the user's own optimistic
// sends. Each producer turns its observation into an Event and enqueues it;
// a single goroutine consumes the queue in arrival order and applies every
// mutation through the message store's id-keyed, replace-in-place merge.
//
// That single-writer loop is the whole concurrency story: overlapping,
// duplicate and out-of-order delivery is safe because merge is keyed by
// conversation and message id, never by "latest request wins". Adapters never
// touch shared state directly. External readers take snapshots under a read
// lock.
package engine
