package engine

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gigachat/internal/pkg/sync/domain"
)

// RecencyEntry pairs a contact with its last-message pointer for the
// presentation layer. Last is nil for contacts never messaged.
type RecencyEntry struct {
	Contact domain.Contact
	Last    *domain.Message
}

// RecencyIndex derives contact ordering from per-conversation last messages.
//
// Ordering rule: contacts with a last message sort descending by its
// CreatedAt; contacts without one sort after all of those, in
// case-insensitive name order. The full sort is recomputed on every read;
// contact counts are small.
type RecencyIndex struct {
	contacts map[string]domain.Contact
	last     map[string]domain.Message
	collator *collate.Collator
}

// NewRecencyIndex creates an empty index.
func NewRecencyIndex() *RecencyIndex {
	return &RecencyIndex{
		contacts: make(map[string]domain.Contact),
		last:     make(map[string]domain.Message),
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// SetContact registers or refreshes a directory contact.
func (ri *RecencyIndex) SetContact(c domain.Contact) {
	if c.ID == "" {
		return
	}
	ri.contacts[c.ID] = c
}

// Contact looks up a registered contact by id.
func (ri *RecencyIndex) Contact(id string) (domain.Contact, bool) {
	c, ok := ri.contacts[id]
	return c, ok
}

// Update records the last message for a contact. An older message never
// regresses the pointer, but a re-observation of the current last (same id,
// e.g. a delete mutation) always replaces it.
func (ri *RecencyIndex) Update(contactID string, last domain.Message) {
	existing, ok := ri.last[contactID]
	if ok && existing.ID != last.ID && last.Before(existing) {
		return
	}
	ri.last[contactID] = last
}

// Last returns the last-message pointer for a contact.
func (ri *RecencyIndex) Last(contactID string) (domain.Message, bool) {
	m, ok := ri.last[contactID]
	return m, ok
}

// Ordered returns the contact list sorted by recency, filtered by query.
//
// A non-empty query matches a case-insensitive substring of name or phone
// number. An empty query falls back to "has at least one message": contacts
// never messaged are hidden from the default view but reachable via search.
func (ri *RecencyIndex) Ordered(query string) []RecencyEntry {
	entries := make([]RecencyEntry, 0, len(ri.contacts))
	for id, c := range ri.contacts {
		last, hasLast := ri.last[id]
		if query == "" {
			if !hasLast {
				continue
			}
		} else if !c.MatchesQuery(query) {
			continue
		}
		e := RecencyEntry{Contact: c}
		if hasLast {
			m := last
			e.Last = &m
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Last != nil && b.Last != nil:
			if !a.Last.CreatedAt.Equal(b.Last.CreatedAt) {
				return a.Last.CreatedAt.After(b.Last.CreatedAt)
			}
			return ri.compareNames(a.Contact, b.Contact) < 0
		case a.Last != nil:
			return true
		case b.Last != nil:
			return false
		default:
			return ri.compareNames(a.Contact, b.Contact) < 0
		}
	})
	return entries
}

func (ri *RecencyIndex) compareNames(a, b domain.Contact) int {
	an, bn := a.Name, b.Name
	if an == "" {
		an = a.PhoneNumber
	}
	if bn == "" {
		bn = b.PhoneNumber
	}
	return ri.collator.CompareString(an, bn)
}
