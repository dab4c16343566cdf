package port

import (
	"context"

	"gigachat/internal/pkg/sync/domain"
)

// API is the REST collaborator consumed by the engine's channel adapters.
// All calls are bearer-token authenticated JSON; implementations map a 401
// response to ErrAuth so callers can tear the session down.
type API interface {
	// Me fetches the current user's profile.
	Me(ctx context.Context) (domain.Contact, error)

	// Contacts fetches the full contact list.
	Contacts(ctx context.Context) ([]domain.Contact, error)

	// History fetches the complete message history with the given contact.
	History(ctx context.Context, contactID string) ([]domain.Message, error)

	// CreateMessage persists a new message and returns the server-assigned
	// record. Used as the fallback delivery path when the push channel is
	// not connected.
	CreateMessage(ctx context.Context, senderID, recipientID, content string) (domain.Message, error)

	// DeleteMessage soft-deletes a message by id and returns the mutated
	// record (Deleted=true, Content cleared).
	DeleteMessage(ctx context.Context, messageID string) (domain.Message, error)
}
