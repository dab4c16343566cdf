package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/port"
)

// DefaultPollInterval is the fixed re-fetch interval for the active
// conversation.
const DefaultPollInterval = 5 * time.Second

// Poller re-fetches the active conversation's full history on a fixed
// interval. It runs only while a conversation is open; the selection
// controller starts it on entry and cancels its context on exit.
type Poller struct {
	api      port.API
	sink     EventSink
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller wires a poller to the REST collaborator and the merge queue.
func NewPoller(api port.API, sink EventSink, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{api: api, sink: sink, interval: interval, logger: logger}
}

// Run fetches immediately, then on every tick until ctx is cancelled.
// Transient fetch errors are logged and do not stop the timer; the timer
// itself is the only retry mechanism.
func (p *Poller) Run(ctx context.Context, contactID string) {
	p.logger.Debug().Str("contact", contactID).Dur("interval", p.interval).Msg("poller starting")

	p.pollOnce(ctx, contactID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Str("contact", contactID).Msg("poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx, contactID)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, contactID string) {
	history, err := p.api.History(ctx, contactID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ferr := &port.FetchError{ContactID: contactID, Err: err}
		p.logger.Warn().Err(ferr).Str("contact", contactID).Msg("poll failed")
		return
	}
	if len(history) == 0 {
		return
	}
	p.sink.Enqueue(Event{
		Type:     EventMessagesObserved,
		PeerID:   contactID,
		Messages: history,
		Source:   SourcePoll,
	})
}
