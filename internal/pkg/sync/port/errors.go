package port

import (
	"errors"
	"fmt"
)

// ErrAuth signals an expired or missing credential. Fatal for the session:
// callers clear session state and re-authenticate. Never retried.
var ErrAuth = errors.New("port: authentication required")

// FetchError wraps a failed REST fetch, isolated to one contact or
// conversation. Already-merged state is never corrupted by it.
type FetchError struct {
	ContactID string
	Err       error
}

func (e *FetchError) Error() string {
	if e.ContactID == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch failed for contact %s: %v", e.ContactID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
