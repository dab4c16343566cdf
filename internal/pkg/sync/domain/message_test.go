package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyOf_Normalized(t *testing.T) {
	assert.Equal(t, KeyOf("alice", "bob"), KeyOf("bob", "alice"))
	assert.Equal(t, Key{Low: "alice", High: "bob"}, KeyOf("bob", "alice"))
	assert.Equal(t, Key{Low: "x", High: "x"}, KeyOf("x", "x"))
}

func TestMessage_PeerOf(t *testing.T) {
	m := Message{SenderID: "alice", RecipientID: "bob"}
	assert.Equal(t, "bob", m.PeerOf("alice"))
	assert.Equal(t, "alice", m.PeerOf("bob"))

	self := Message{SenderID: "alice", RecipientID: "alice"}
	assert.Equal(t, "alice", self.PeerOf("alice"))
}

func TestMessage_Involves(t *testing.T) {
	m := Message{SenderID: "alice", RecipientID: "bob"}
	assert.True(t, m.Involves("bob", "alice"))
	assert.True(t, m.Involves("alice", "bob"))
	assert.False(t, m.Involves("alice", "carol"))
}

func TestMessage_Before_TieBreaksOnID(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Message{ID: "a", CreatedAt: at}
	b := Message{ID: "b", CreatedAt: at}
	later := Message{ID: "0", CreatedAt: at.Add(time.Second)}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, a.Before(later))
	assert.False(t, later.Before(a), "timestamp wins over id")
}

func TestContact_DisplayName(t *testing.T) {
	c := Contact{ID: "bob", Name: "Bob", PhoneNumber: "9000000002", ContactIDs: []string{"alice"}}

	assert.Equal(t, "Bob", c.DisplayName("alice"))
	assert.Equal(t, "9000000002", c.DisplayName("carol"), "non-mutual contacts show the phone number")
}

func TestContact_MatchesQuery(t *testing.T) {
	c := Contact{Name: "Bob Marley", PhoneNumber: "9000000002"}

	assert.True(t, c.MatchesQuery("bob"))
	assert.True(t, c.MatchesQuery("MARLEY"))
	assert.True(t, c.MatchesQuery("000000"))
	assert.False(t, c.MatchesQuery("alice"))
}
