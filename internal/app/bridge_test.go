package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeRunReturnsResult(t *testing.T) {
	b := NewBridge(time.Second)
	defer b.Close()

	ran := false
	err := b.Run(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	want := errors.New("boom")
	assert.ErrorIs(t, b.Run(func() error { return want }), want)
}

func TestBridgeTimeoutLeavesOperationRunning(t *testing.T) {
	b := NewBridge(time.Second)
	defer b.Close()

	release := make(chan struct{})
	var finished atomic.Bool
	err := b.RunTimeout(func() error {
		<-release
		finished.Store(true)
		return nil
	}, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrOperationTimedOut)
	assert.False(t, finished.Load())

	close(release)
	// The worker finishes the abandoned op and stays healthy for the next one.
	require.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
	assert.NoError(t, b.Run(func() error { return nil }))
}

func TestBridgeSerializesOperations(t *testing.T) {
	b := NewBridge(time.Second)
	defer b.Close()

	var inFlight, maxInFlight atomic.Int32
	done := make(chan struct{}, 8)
	for range 8 {
		go func() {
			_ = b.Run(func() error {
				cur := inFlight.Add(1)
				if cur > maxInFlight.Load() {
					maxInFlight.Store(cur)
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			done <- struct{}{}
		}()
	}
	for range 8 {
		<-done
	}
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestBridgeRecoversPanic(t *testing.T) {
	b := NewBridge(time.Second)
	defer b.Close()

	err := b.Run(func() error { panic("ouch") })
	assert.Error(t, err)
	assert.NoError(t, b.Run(func() error { return nil }))
}

func TestBridgeClosed(t *testing.T) {
	b := NewBridge(time.Second)
	b.Close()
	time.Sleep(10 * time.Millisecond)

	err := b.Run(func() error { return nil })
	assert.Error(t, err)
}

func TestTasksSubmit(t *testing.T) {
	tasks := NewTasks(4)
	defer tasks.Close()

	done := make(chan struct{})
	ok := tasks.Submit("noop", func(context.Context) error {
		close(done)
		return nil
	})
	require.True(t, ok)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}
