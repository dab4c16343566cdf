package domain

import "strings"

// Contact is a directory entry referenced by the engine by id only. The
// directory collaborator owns the contact list; the engine never infers
// conversation existence from it.
type Contact struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Picture     string   `json:"profiledp,omitempty"`
	ContactIDs  []string `json:"contacts,omitempty"`
}

// IsMutual reports whether the contact's own contact list includes selfID.
// Mutual contacts are displayed by name, others by phone number.
func (c Contact) IsMutual(selfID string) bool {
	for _, id := range c.ContactIDs {
		if id == selfID {
			return true
		}
	}
	return false
}

// DisplayName returns the name shown for the contact given the current user.
func (c Contact) DisplayName(selfID string) string {
	if c.IsMutual(selfID) && c.Name != "" {
		return c.Name
	}
	return c.PhoneNumber
}

// MatchesQuery reports whether the contact matches a case-insensitive
// substring search against its name or phone number.
func (c Contact) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(c.PhoneNumber, q)
}
