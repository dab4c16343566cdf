package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

// Sender performs optimistic sends. A provisional record with a locally
// generated id is merged immediately so the message is visible before any
// acknowledgment; delivery then goes over the push channel when connected,
// falling back to a one-shot REST create otherwise.
//
// Reconciliation is by id: when the transport returns a record with the
// provisional id, the merge overwrites the provisional record in place.
// When the server assigns a different id (the push path), the confirmed
// record arrives as a regular delivery and coexists with the provisional
// one. That coexistence is intentional observed behavior.
type Sender struct {
	api    port.API
	push   port.Push
	sink   EventSink
	logger zerolog.Logger
}

// NewSender wires a sender to both transports and the merge queue.
func NewSender(api port.API, push port.Push, sink EventSink, logger zerolog.Logger) *Sender {
	return &Sender{api: api, push: push, sink: sink, logger: logger}
}

// Send merges a provisional record for content and attempts delivery.
// On failure it returns a *SendError and leaves the provisional record in
// the timeline, flagged unsent; there is no automatic retry.
func (s *Sender) Send(ctx context.Context, selfID, peerID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	provisional := domain.Message{
		ID:          uuid.NewString(),
		SenderID:    selfID,
		RecipientID: peerID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
		Provisional: true,
	}
	s.sink.Enqueue(Event{
		Type:     EventMessagesObserved,
		PeerID:   peerID,
		Messages: []domain.Message{provisional},
		Source:   SourceLocal,
	})

	if s.push.Connected() {
		if err := s.push.Send(selfID, peerID, content); err != nil {
			s.logger.Warn().Err(err).Str("message", provisional.ID).Msg("push send failed")
			return provisional, &SendError{MessageID: provisional.ID, Err: err}
		}
		// The authoritative record comes back as a push delivery.
		return provisional, nil
	}

	confirmed, err := s.api.CreateMessage(ctx, selfID, peerID, content)
	if err != nil {
		s.logger.Warn().Err(err).Str("message", provisional.ID).Msg("rest send failed")
		return provisional, &SendError{MessageID: provisional.ID, Err: err}
	}
	confirmed.Provisional = false
	s.sink.Enqueue(Event{
		Type:     EventMessagesObserved,
		PeerID:   peerID,
		Messages: []domain.Message{confirmed},
		Source:   SourceLocal,
	})
	return confirmed, nil
}
