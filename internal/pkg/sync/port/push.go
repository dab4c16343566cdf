package port

import (
	"context"

	"gigachat/internal/pkg/sync/domain"
)

// MessageHandler receives messages delivered over the push channel.
type MessageHandler func(domain.Message)

// ContactHandler receives contacts added while the session is live
// (friend-request acceptance). The directory collaborator owns the contact;
// the engine only indexes it.
type ContactHandler func(domain.Contact)

// Push is the persistent, server-initiated delivery transport. One channel
// per session, joined to the user's private room.
//
// Implementations reconnect a bounded number of times with a fixed delay;
// once exhausted they stay closed and Connected reports false, leaving the
// poller as the sole delivery path.
type Push interface {
	// Connect dials the channel and joins the room for userID.
	Connect(ctx context.Context, userID string) error

	// Connected reports whether the channel is currently usable for sends.
	Connected() bool

	// Send delivers an outgoing message over the channel. The authoritative
	// record comes back as a regular push delivery.
	Send(senderID, recipientID, content string) error

	// OnMessage registers the handler for delivered messages. Must be called
	// before Connect.
	OnMessage(h MessageHandler)

	// OnContactAccepted registers the handler for contact additions. Must be
	// called before Connect.
	OnContactAccepted(h ContactHandler)

	// Close tears the channel down and stops reconnection.
	Close() error
}
