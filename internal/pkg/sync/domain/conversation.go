package domain

import "sort"

// Conversation owns the ordered message timeline between the current user and
// one peer. Messages are sorted ascending by CreatedAt with ID as tie-break.
//
// Records are never removed: a delete is an in-place mutation (Deleted=true,
// Content cleared) so position and history are preserved. Re-observing a known
// ID overwrites its mutable fields in place, which is how a provisional
// optimistic record is reconciled with its server-confirmed counterpart.
type Conversation struct {
	PeerID string

	messages []Message
	byID     map[string]int // message id -> position in messages
}

// NewConversation creates an empty timeline for the given peer.
func NewConversation(peerID string) *Conversation {
	return &Conversation{
		PeerID: peerID,
		byID:   make(map[string]int),
	}
}

// Observe merges one message observation into the timeline and reports
// whether the conversation's last message changed as a result.
//
// Idempotent: observing an identical message again is a no-op beyond the
// in-place overwrite.
func (c *Conversation) Observe(m Message) bool {
	if pos, ok := c.byID[m.ID]; ok {
		existing := &c.messages[pos]
		existing.Content = m.Content
		existing.Deleted = m.Deleted
		existing.IsNotification = m.IsNotification
		existing.Provisional = m.Provisional
		return pos == len(c.messages)-1
	}

	n := len(c.messages)
	if n == 0 || c.messages[n-1].Before(m) {
		// Common case for live traffic: new tail.
		c.messages = append(c.messages, m)
		c.byID[m.ID] = n
		return true
	}

	// Out-of-order backfill: binary-search the insertion point.
	pos := sort.Search(n, func(i int) bool {
		return m.Before(c.messages[i])
	})
	c.messages = append(c.messages, Message{})
	copy(c.messages[pos+1:], c.messages[pos:])
	c.messages[pos] = m
	for i := pos; i < len(c.messages); i++ {
		c.byID[c.messages[i].ID] = i
	}
	return pos == len(c.messages)-1
}

// Messages returns a copy of the ordered timeline.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Get returns the message with the given id, if present.
func (c *Conversation) Get(id string) (Message, bool) {
	pos, ok := c.byID[id]
	if !ok {
		return Message{}, false
	}
	return c.messages[pos], true
}

// Last returns the most recent message, if any. A deleted message can still
// be the last one; callers render it as a placeholder.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of records in the timeline, deleted ones included.
func (c *Conversation) Len() int {
	return len(c.messages)
}
