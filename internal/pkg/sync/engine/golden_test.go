package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"gigachat/internal/pkg/sync/domain"
)

// renderTimeline writes the merged conversation as a stable transcript, one
// line per record, for golden comparison.
func renderTimeline(msgs []domain.Message) []byte {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s  %s  %s -> %s  ", m.CreatedAt.Format(time.RFC3339), m.ID, m.SenderID, m.RecipientID)
		if m.Deleted {
			b.WriteString("[deleted]")
		} else {
			b.WriteString(m.Content)
		}
		if m.Provisional {
			b.WriteString("  (unsent)")
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// TestGolden_MergedTimeline replays a full session's worth of observations
// from every producer and snapshots the resulting timeline: the initial load,
// an overlapping poll batch with an out-of-order backfill, a soft delete and
// an optimistic unsent record.
//
// Regenerate with: go test ./internal/pkg/sync/engine -run TestGolden -update
func TestGolden_MergedTimeline(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }
	msg := func(id, sender, recipient, content string, min int) domain.Message {
		return domain.Message{
			ID: id, SenderID: sender, RecipientID: recipient,
			Content: content, CreatedAt: at(min),
		}
	}

	s := NewStore()

	// Initial load; m3 is missing from this snapshot.
	s.Merge("bob", []domain.Message{
		msg("m1", "alice", "bob", "morning", 0),
		msg("m2", "bob", "alice", "hey yourself", 1),
		msg("m4", "bob", "alice", "sure", 3),
	})

	// Poll cycle: overlaps m2 and m4, backfills m3.
	s.Merge("bob", []domain.Message{
		msg("m2", "bob", "alice", "hey yourself", 1),
		msg("m3", "alice", "bob", "coffee?", 2),
		msg("m4", "bob", "alice", "sure", 3),
	})

	// Bob deletes m2; the confirmed mutation arrives.
	deleted := msg("m2", "bob", "alice", "", 1)
	deleted.Deleted = true
	s.Merge("bob", []domain.Message{deleted})

	// An optimistic send awaiting confirmation.
	unsent := msg("local-1", "alice", "bob", "see you at ten", 4)
	unsent.Provisional = true
	s.Merge("bob", []domain.Message{unsent})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "merged_timeline", renderTimeline(s.Timeline("bob")))
}
