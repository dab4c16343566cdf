package domain

import (
	"strings"
	"time"
)

// Message is a single entry in a conversation timeline.
//
// Identity (ID, SenderID, RecipientID, CreatedAt) is immutable once observed;
// Content, Deleted and IsNotification may change on later observations of the
// same ID. A provisional, locally generated ID is used for optimistic sends
// until the server-assigned ID is known.
type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Deleted        bool      `json:"deleted"`
	IsNotification bool      `json:"isNotification"`

	// Provisional marks a locally created record that has not been confirmed
	// by the server. Never set on records observed from the network.
	Provisional bool `json:"-"`
}

// Key identifies the conversation a message belongs to: the unordered pair of
// participant ids, normalized so that Low <= High.
type Key struct {
	Low  string
	High string
}

// KeyOf builds a normalized conversation key for two participant ids.
func KeyOf(a, b string) Key {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return Key{Low: a, High: b}
}

// Key returns the conversation key of the message.
func (m Message) Key() Key {
	return KeyOf(m.SenderID, m.RecipientID)
}

// PeerOf returns the other participant relative to selfID. For a message the
// user sent to themselves both sides are selfID.
func (m Message) PeerOf(selfID string) string {
	if m.SenderID == selfID {
		return m.RecipientID
	}
	return m.SenderID
}

// Involves reports whether the message belongs to the conversation between
// the two given participants, in either direction.
func (m Message) Involves(a, b string) bool {
	return m.Key() == KeyOf(a, b)
}

// Before reports whether m orders before other in a timeline: ascending
// CreatedAt, ties broken by ID for determinism.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
