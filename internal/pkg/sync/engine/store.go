package engine

import "gigachat/internal/pkg/sync/domain"

// Store owns the authoritative per-conversation message sequences. All writes
// go through Merge; the engine's run loop is the only writer. Conversations
// are created implicitly on first observation and live for the session.
type Store struct {
	conversations map[string]*domain.Conversation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{conversations: make(map[string]*domain.Conversation)}
}

// Merge folds observed messages into the peer's conversation. It returns the
// conversation's last message and whether that last message changed, so the
// caller can notify the recency index.
//
// Idempotent: re-merging an identical observation only performs the in-place
// overwrite and produces no new records.
func (s *Store) Merge(peerID string, msgs []domain.Message) (domain.Message, bool) {
	conv, ok := s.conversations[peerID]
	if !ok {
		conv = domain.NewConversation(peerID)
		s.conversations[peerID] = conv
	}
	changed := false
	for _, m := range msgs {
		if conv.Observe(m) {
			changed = true
		}
	}
	last, ok := conv.Last()
	return last, ok && changed
}

// Timeline returns a copy of the ordered message sequence for the peer.
func (s *Store) Timeline(peerID string) []domain.Message {
	conv, ok := s.conversations[peerID]
	if !ok {
		return nil
	}
	return conv.Messages()
}

// Message looks up one record by conversation and id.
func (s *Store) Message(peerID, id string) (domain.Message, bool) {
	conv, ok := s.conversations[peerID]
	if !ok {
		return domain.Message{}, false
	}
	return conv.Get(id)
}

// Len returns the number of records held for the peer, deleted ones included.
func (s *Store) Len(peerID string) int {
	conv, ok := s.conversations[peerID]
	if !ok {
		return 0
	}
	return conv.Len()
}
