package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

// Loader performs the one-time historical load at session start: the contact
// list, then one history fetch per contact, fanned out concurrently. Each
// observation is enqueued for the merge loop, which populates the store and
// the recency index from scratch.
type Loader struct {
	api    port.API
	sink   EventSink
	logger zerolog.Logger
}

// NewLoader wires a loader to the REST collaborator and the merge queue.
func NewLoader(api port.API, sink EventSink, logger zerolog.Logger) *Loader {
	return &Loader{api: api, sink: sink, logger: logger}
}

// Load runs the initial fan-out. Per-contact history failures are isolated:
// they are logged and skipped, never aborting the overall load; a failed
// contact is fetched again only when the user opens its conversation. An
// authentication failure aborts the load.
func (l *Loader) Load(ctx context.Context) error {
	contacts, err := l.api.Contacts(ctx)
	if err != nil {
		if errors.Is(err, port.ErrAuth) {
			return err
		}
		return &port.FetchError{Err: err}
	}

	for _, c := range contacts {
		l.sink.Enqueue(Event{Type: EventContactSeen, Contact: c, Source: SourceInitialLoad})
	}

	var wg sync.WaitGroup
	for _, c := range contacts {
		wg.Add(1)
		go func(c domain.Contact) {
			defer wg.Done()
			history, err := l.api.History(ctx, c.ID)
			if err != nil {
				ferr := &port.FetchError{ContactID: c.ID, Err: err}
				l.logger.Warn().Err(ferr).Str("contact", c.ID).Msg("history load failed, contact skipped")
				return
			}
			if len(history) == 0 {
				return
			}
			l.sink.Enqueue(Event{
				Type:     EventMessagesObserved,
				PeerID:   c.ID,
				Messages: history,
				Source:   SourceInitialLoad,
			})
		}(c)
	}
	wg.Wait()

	l.logger.Info().Int("contacts", len(contacts)).Msg("initial load complete")
	return nil
}
