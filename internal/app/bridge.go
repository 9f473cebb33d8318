package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrOperationTimedOut is returned when a bridged call does not
// complete within its deadline. The underlying operation keeps running
// on the worker; only the caller gives up waiting.
var ErrOperationTimedOut = errors.New("operation timed out")

var errBridgeClosed = errors.New("bridge closed")

type bridgeTask struct {
	op   func() error
	done chan error
}

// Bridge executes media-stack operations on one long-lived worker
// goroutine, so peer connections and recorder handles stay affinitized
// to a single execution context for their whole lifetime. Callers
// block with a bounded timeout; the worker is a process-lifetime
// singleton and is only torn down on shutdown.
type Bridge struct {
	tasks   chan bridgeTask
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func NewBridge(timeout time.Duration) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		tasks:   make(chan bridgeTask, 64),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
	go b.worker()
	return b
}

func (b *Bridge) worker() {
	for {
		select {
		case <-b.ctx.Done():
			log.Info().Str("module", "app.bridge").Msg("bridge worker stopped")
			return
		case t := <-b.tasks:
			err := runProtected(t.op)
			// Buffered; never blocks even when the caller timed out.
			t.done <- err
			if err != nil {
				log.Debug().Str("module", "app.bridge").Err(err).Msg("bridged operation returned error")
			}
		}
	}
}

func runProtected(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.bridge").Interface("panic", r).Msg("bridged operation panicked")
			err = errors.New("bridged operation panicked")
		}
	}()
	return op()
}

// Run submits op to the worker and waits for its result with the
// bridge's default timeout.
func (b *Bridge) Run(op func() error) error {
	return b.RunTimeout(op, b.timeout)
}

// RunTimeout blocks until op completed on the worker or the timeout
// elapsed. On timeout the operation is left to finish (or fail) on its
// own; its eventual error is only logged.
func (b *Bridge) RunTimeout(op func() error, timeout time.Duration) error {
	t := bridgeTask{op: op, done: make(chan error, 1)}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case b.tasks <- t:
	case <-deadline.C:
		log.Warn().Str("module", "app.bridge").Dur("timeout", timeout).Msg("bridge queue full, submission timed out")
		return ErrOperationTimedOut
	case <-b.ctx.Done():
		return errBridgeClosed
	}

	select {
	case err := <-t.done:
		return err
	case <-deadline.C:
		log.Warn().Str("module", "app.bridge").Dur("timeout", timeout).Msg("bridged operation timed out, left running")
		return ErrOperationTimedOut
	case <-b.ctx.Done():
		return errBridgeClosed
	}
}

// Close stops the worker. Only meant for process shutdown and tests.
func (b *Bridge) Close() {
	b.cancel()
}
