package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigachat/internal/pkg/sync/domain"
)

func message(id, sender, recipient string, at time.Time) domain.Message {
	return domain.Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Content:     "content of " + id,
		CreatedAt:   at,
	}
}

func TestStore_MergeOverlappingBatches(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()

	// Historical load delivers the first batch.
	first := []domain.Message{
		message("m1", "alice", "bob", base),
		message("m2", "bob", "alice", base.Add(time.Minute)),
	}
	last, changed := s.Merge("bob", first)
	require.True(t, changed)
	assert.Equal(t, "m2", last.ID)

	// A poll cycle re-delivers m2 alongside a new m3: identical overlap is
	// absorbed, the new record lands once.
	second := []domain.Message{
		message("m2", "bob", "alice", base.Add(time.Minute)),
		message("m3", "alice", "bob", base.Add(2*time.Minute)),
	}
	last, changed = s.Merge("bob", second)
	require.True(t, changed)
	assert.Equal(t, "m3", last.ID)
	assert.Equal(t, 3, s.Len("bob"))

	// Re-merging the same batch is a no-op.
	before := s.Timeline("bob")
	s.Merge("bob", second)
	assert.Equal(t, before, s.Timeline("bob"))
}

func TestStore_MergeReportsUnchangedLast(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()

	s.Merge("bob", []domain.Message{
		message("m1", "alice", "bob", base),
		message("m2", "bob", "alice", base.Add(time.Minute)),
	})

	// Backfill before the tail: the last message pointer is untouched.
	_, changed := s.Merge("bob", []domain.Message{
		message("m0", "bob", "alice", base.Add(-time.Minute)),
	})
	assert.False(t, changed)
	assert.Equal(t, 3, s.Len("bob"))
	assert.Equal(t, "m0", s.Timeline("bob")[0].ID)
}

func TestStore_DeleteMutatesInPlace(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()

	s.Merge("bob", []domain.Message{
		message("m1", "alice", "bob", base),
		message("m2", "alice", "bob", base.Add(time.Minute)),
	})

	deleted := message("m1", "alice", "bob", base)
	deleted.Deleted = true
	deleted.Content = ""
	s.Merge("bob", []domain.Message{deleted})

	require.Equal(t, 2, s.Len("bob"))
	got, ok := s.Message("bob", "m1")
	require.True(t, ok)
	assert.True(t, got.Deleted)
	assert.Empty(t, got.Content)
	assert.Equal(t, "m1", s.Timeline("bob")[0].ID, "deleted record keeps its position")
}

func TestStore_ConversationsAreIndependent(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()

	s.Merge("bob", []domain.Message{message("m1", "alice", "bob", base)})
	s.Merge("carol", []domain.Message{message("m2", "carol", "alice", base)})

	assert.Equal(t, 1, s.Len("bob"))
	assert.Equal(t, 1, s.Len("carol"))
	assert.Nil(t, s.Timeline("dave"))
}
