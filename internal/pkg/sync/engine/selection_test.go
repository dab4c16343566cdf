package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionController_ActivateRunsScopedTask(t *testing.T) {
	sc := NewSelectionController()
	started := make(chan struct{})

	sc.Activate(context.Background(), "bob", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("scoped task never started")
	}
	assert.Equal(t, "bob", sc.Active())

	sc.Deactivate()
	assert.Equal(t, "", sc.Active())
}

func TestSelectionController_SwitchCancelsPrevious(t *testing.T) {
	sc := NewSelectionController()
	firstDone := make(chan struct{})

	sc.Activate(context.Background(), "bob", func(ctx context.Context) {
		<-ctx.Done()
		close(firstDone)
	})

	sc.Activate(context.Background(), "carol", func(ctx context.Context) {
		<-ctx.Done()
	})

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("switching conversations must cancel the previous task")
	}
	assert.Equal(t, "carol", sc.Active())

	sc.Deactivate()
}

func TestSelectionController_DeactivateWaitsForTask(t *testing.T) {
	sc := NewSelectionController()
	exited := false

	sc.Activate(context.Background(), "bob", func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		exited = true
	})

	sc.Deactivate()
	assert.True(t, exited, "Deactivate returns only after the task exits")
}

func TestSelectionController_DeactivateWhenIdle(t *testing.T) {
	sc := NewSelectionController()

	// Must not panic or block.
	sc.Deactivate()
	sc.Deactivate()
	require.Equal(t, "", sc.Active())
}

func TestSelectionController_ParentCancelStopsTask(t *testing.T) {
	sc := NewSelectionController()
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	sc.Activate(ctx, "bob", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("parent cancellation must reach the scoped task")
	}
}
