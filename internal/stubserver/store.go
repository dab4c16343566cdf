package stubserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigachat/internal/pkg/sync/domain"
)

var (
	errBadCredentials = errors.New("stubserver: invalid credentials")
	errUnknownToken   = errors.New("stubserver: unknown token")
	errUnknownUser    = errors.New("stubserver: unknown user")
	errUnknownMessage = errors.New("stubserver: unknown message")
)

type account struct {
	contact  domain.Contact
	password string
}

// memoryStore holds accounts, sessions and conversation timelines for the
// stub backend. Deletion is a soft mutation, matching the real service.
type memoryStore struct {
	mu        sync.Mutex
	accounts  map[string]*account
	tokens    map[string]string // token -> user id
	timelines map[domain.Key][]domain.Message
	keyByMsg  map[string]domain.Key
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:  make(map[string]*account),
		tokens:    make(map[string]string),
		timelines: make(map[domain.Key][]domain.Message),
		keyByMsg:  make(map[string]domain.Key),
	}
}

func (s *memoryStore) addUser(c domain.Contact, password string) domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.accounts[c.ID] = &account{contact: c, password: password}
	return c
}

func (s *memoryStore) authenticate(emailOrPhone, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		match := acc.contact.PhoneNumber == emailOrPhone ||
			strings.EqualFold(acc.contact.Name, emailOrPhone)
		if match && acc.password == password {
			token := uuid.NewString()
			s.tokens[token] = acc.contact.ID
			return token, nil
		}
	}
	return "", errBadCredentials
}

func (s *memoryStore) issueToken(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[userID]; !ok {
		return "", errUnknownUser
	}
	token := uuid.NewString()
	s.tokens[token] = userID
	return token, nil
}

func (s *memoryStore) userForToken(token string) (domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return domain.Contact{}, errUnknownToken
	}
	acc, ok := s.accounts[id]
	if !ok {
		return domain.Contact{}, errUnknownUser
	}
	return acc.contact, nil
}

func (s *memoryStore) contactsFor(selfID string) []domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := make([]domain.Contact, 0, len(s.accounts))
	for id, acc := range s.accounts {
		if id == selfID {
			continue
		}
		contacts = append(contacts, acc.contact)
	}
	return contacts
}

func (s *memoryStore) history(a, b string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	timeline := s.timelines[domain.KeyOf(a, b)]
	out := make([]domain.Message, len(timeline))
	copy(out, timeline)
	return out
}

func (s *memoryStore) appendMessage(senderID, recipientID, content string, at time.Time) domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	msg := domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   at,
	}
	key := msg.Key()
	s.timelines[key] = append(s.timelines[key], msg)
	s.keyByMsg[msg.ID] = key
	return msg
}

func (s *memoryStore) deleteMessage(id string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keyByMsg[id]
	if !ok {
		return domain.Message{}, errUnknownMessage
	}
	timeline := s.timelines[key]
	for i := range timeline {
		if timeline[i].ID == id {
			timeline[i].Deleted = true
			timeline[i].Content = ""
			return timeline[i], nil
		}
	}
	return domain.Message{}, errUnknownMessage
}

// acceptFriend makes the two users mutual contacts and returns their fresh
// contact records, a then b.
func (s *memoryStore) acceptFriend(aID, bID string) (domain.Contact, domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[aID]
	if !ok {
		return domain.Contact{}, domain.Contact{}, errUnknownUser
	}
	b, ok := s.accounts[bID]
	if !ok {
		return domain.Contact{}, domain.Contact{}, errUnknownUser
	}
	a.contact.ContactIDs = appendUnique(a.contact.ContactIDs, bID)
	b.contact.ContactIDs = appendUnique(b.contact.ContactIDs, aID)
	return a.contact, b.contact, nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
