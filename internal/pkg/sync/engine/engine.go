package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

// Engine reconciles the four producers (initial loader, poller, push
// listener, optimistic sends) into one consistent conversation state. It is
// the only writer: every mutation enters through the event queue and is
// applied by the run loop, one event at a time.
type Engine struct {
	api    port.API
	push   port.Push
	logger zerolog.Logger

	queue   *eventQueue
	loader  *Loader
	poller  *Poller
	sender  *Sender
	deleter *Deleter
	sel     *SelectionController

	pollInterval time.Duration

	mu      sync.RWMutex
	started bool
	self    domain.Contact
	store   *Store
	recency *RecencyIndex

	sessionCtx context.Context
	notify     chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// Option configures the engine at construction.
type Option func(*Engine)

// WithPollInterval overrides the active-conversation poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New wires an engine to its REST and push collaborators.
func New(api port.API, push port.Push, opts ...Option) *Engine {
	e := &Engine{
		api:          api,
		push:         push,
		logger:       zerolog.Nop(),
		queue:        newEventQueue(),
		sel:          NewSelectionController(),
		pollInterval: DefaultPollInterval,
		store:        NewStore(),
		recency:      NewRecencyIndex(),
		notify:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loader = NewLoader(api, e, e.logger)
	e.poller = NewPoller(api, e, e.pollInterval, e.logger)
	e.sender = NewSender(api, push, e, e.logger)
	e.deleter = NewDeleter(api, e, e.logger)
	return e
}

// Enqueue submits an event for serial processing. Implements EventSink; safe
// from any goroutine.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Start establishes the session: fetches the user profile, joins the push
// room, starts the run loop and performs the initial historical load.
//
// A profile fetch failure is fatal (including ErrAuth). A push connection
// failure is not: the engine runs degraded with polling as the only live
// delivery path.
func (e *Engine) Start(ctx context.Context) error {
	me, err := e.api.Me(ctx)
	if err != nil {
		if errors.Is(err, port.ErrAuth) {
			return err
		}
		return fmt.Errorf("load profile: %w", err)
	}

	e.mu.Lock()
	e.self = me
	e.started = true
	e.sessionCtx = ctx
	e.mu.Unlock()

	e.push.OnMessage(e.handlePushMessage)
	e.push.OnContactAccepted(e.handleContactAccepted)
	if err := e.push.Connect(ctx, me.ID); err != nil {
		e.logger.Warn().Err(err).Msg("push channel unavailable, running degraded")
	}

	e.wg.Add(1)
	go e.run(ctx)

	if err := e.loader.Load(ctx); err != nil {
		if errors.Is(err, port.ErrAuth) {
			return err
		}
		e.logger.Warn().Err(err).Msg("initial load incomplete")
	}
	return nil
}

// Close releases every session resource: the active selection, the push
// channel and the run loop.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.sel.Deactivate()
		_ = e.push.Close()
		e.queue.Close()
		e.wg.Wait()
	})
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	defer e.sel.Deactivate()

	for {
		e.drainQueue()
		select {
		case <-ctx.Done():
			return
		case _, ok := <-e.queue.Wait():
			if !ok {
				e.drainQueue()
				return
			}
		}
	}
}

// drainQueue applies every queued event in arrival order.
func (e *Engine) drainQueue() {
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.apply(ev)
	}
}

// apply performs one mutation. The single-consumer loop makes each apply
// atomic with respect to snapshot reads.
func (e *Engine) apply(ev Event) {
	e.mu.Lock()
	switch ev.Type {
	case EventContactSeen:
		e.recency.SetContact(ev.Contact)

	case EventMessagesObserved:
		if ev.Source == SourcePush && ev.PeerID != e.sel.Active() {
			// Push traffic for other conversations skips the merge but
			// still advances that conversation's recency.
			for _, m := range ev.Messages {
				e.recency.Update(ev.PeerID, m)
			}
			break
		}
		last, changed := e.store.Merge(ev.PeerID, ev.Messages)
		if changed {
			e.recency.Update(ev.PeerID, last)
		}
	}
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Notify returns a channel that signals after state changes, for the
// presentation layer to refresh on. Signals are coalesced.
func (e *Engine) Notify() <-chan struct{} {
	return e.notify
}

// Self returns the current user's profile.
func (e *Engine) Self() domain.Contact {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.self
}

// Contacts returns the recency-ordered contact list for the given search
// query (see RecencyIndex.Ordered for the filter rules).
func (e *Engine) Contacts(query string) []RecencyEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recency.Ordered(query)
}

// Search is the exposed search operation; identical to Contacts.
func (e *Engine) Search(query string) []RecencyEntry {
	return e.Contacts(query)
}

// Timeline returns the ordered message sequence with the given contact.
func (e *Engine) Timeline(contactID string) []domain.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Timeline(contactID)
}

// Active returns the open conversation's contact id, or "" when none is.
func (e *Engine) Active() string {
	return e.sel.Active()
}

// SelectConversation opens the conversation with contactID: performs one
// immediate history fetch and starts the fixed-interval poller, both scoped
// to the selection. The push relevance filter follows the active selection
// automatically.
func (e *Engine) SelectConversation(contactID string) error {
	e.mu.RLock()
	started := e.started
	parent := e.sessionCtx
	e.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	e.sel.Activate(parent, contactID, func(ctx context.Context) {
		e.poller.Run(ctx, contactID)
	})
	return nil
}

// Deselect closes the open conversation, stopping the poller and widening
// the push filter back to recency-only handling.
func (e *Engine) Deselect() {
	e.sel.Deactivate()
}

// SendMessage sends text to the active conversation's contact. The returned
// message is the confirmed record when delivery was synchronous (REST path)
// or the provisional record otherwise.
func (e *Engine) SendMessage(ctx context.Context, text string) (domain.Message, error) {
	peer := e.sel.Active()
	if peer == "" {
		return domain.Message{}, ErrNoActiveConversation
	}
	return e.sender.Send(ctx, e.Self().ID, peer, text)
}

// DeleteMessages soft-deletes the given message ids, one request each, and
// returns an aggregated *DeleteError if any failed.
func (e *Engine) DeleteMessages(ctx context.Context, ids []string) error {
	if e.sel.Active() == "" {
		return ErrNoActiveConversation
	}
	return e.deleter.Delete(ctx, e.Self().ID, ids)
}

func (e *Engine) handlePushMessage(m domain.Message) {
	self := e.Self().ID
	e.Enqueue(Event{
		Type:     EventMessagesObserved,
		PeerID:   m.PeerOf(self),
		Messages: []domain.Message{m},
		Source:   SourcePush,
	})
}

func (e *Engine) handleContactAccepted(c domain.Contact) {
	e.Enqueue(Event{Type: EventContactSeen, Contact: c, Source: SourcePush})
}
