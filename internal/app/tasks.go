package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

type task struct {
	name string
	fn   func(context.Context) error
}

// Tasks is a fire-and-forget background work queue. Submitted work
// never blocks the caller and never reports back; failures go to the
// queue's own log sink. Used for post-recording transcription handoff.
type Tasks struct {
	queue  chan task
	ctx    context.Context
	cancel context.CancelFunc
}

func NewTasks(size int) *Tasks {
	if size <= 0 {
		size = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tasks{
		queue:  make(chan task, size),
		ctx:    ctx,
		cancel: cancel,
	}
	go t.worker()
	return t
}

func (t *Tasks) worker() {
	for {
		select {
		case <-t.ctx.Done():
			log.Info().Str("module", "app.tasks").Msg("task worker stopped")
			return
		case job := <-t.queue:
			t.run(job)
		}
	}
}

func (t *Tasks) run(job task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.tasks").Str("task", job.name).Interface("panic", r).Msg("background task panicked")
		}
	}()
	if err := job.fn(t.ctx); err != nil {
		log.Error().Str("module", "app.tasks").Str("task", job.name).Err(err).Msg("background task failed")
		return
	}
	log.Info().Str("module", "app.tasks").Str("task", job.name).Msg("background task done")
}

// Submit enqueues fn without waiting. Reports false when the queue is
// full or shut down; the work is dropped and logged, never retried.
func (t *Tasks) Submit(name string, fn func(context.Context) error) bool {
	select {
	case t.queue <- task{name: name, fn: fn}:
		return true
	default:
		log.Warn().Str("module", "app.tasks").Str("task", name).Msg("task queue full, dropping")
		return false
	}
}

func (t *Tasks) Close() {
	t.cancel()
}
