package engine

import "gigachat/internal/pkg/sync/domain"

// Source identifies which channel adapter produced an event.
type Source int

const (
	// SourceInitialLoad is the one-time historical load at session start.
	SourceInitialLoad Source = iota + 1
	// SourcePoll is the periodic re-fetch of the active conversation.
	SourcePoll
	// SourcePush is the persistent push channel.
	SourcePush
	// SourceLocal is the user's own optimistic send or its confirmation.
	SourceLocal
	// SourceDelete is a confirmed soft-delete observation.
	SourceDelete
)

func (s Source) String() string {
	switch s {
	case SourceInitialLoad:
		return "initial-load"
	case SourcePoll:
		return "poll"
	case SourcePush:
		return "push"
	case SourceLocal:
		return "local"
	case SourceDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// EventType distinguishes event kinds on the merge queue.
type EventType int

const (
	// EventMessagesObserved carries messages observed for one conversation.
	EventMessagesObserved EventType = iota + 1
	// EventContactSeen carries a contact delivered by the directory
	// collaborator (initial list or friend-request acceptance).
	EventContactSeen
)

// Event is a single unit of work for the merge loop.
type Event struct {
	Type     EventType
	PeerID   string // conversation owner for EventMessagesObserved
	Messages []domain.Message
	Contact  domain.Contact
	Source   Source
}

// EventSink accepts events for serial processing. Safe for use from any
// goroutine. Enqueue reports false once the sink has shut down.
type EventSink interface {
	Enqueue(ev Event) bool
}
