// Package scheduler runs a task periodically until its handle is stopped.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is one periodic run. ctx is cancelled once the handle is stopped.
type Task func(ctx context.Context)

// Handle revokes a periodic task
type Handle interface {
	// Stop prevents any further run. A run already in progress is not interrupted
	// beyond cancelling its context; Stop never blocks on it.
	Stop()
	// Done is closed once the task loop has exited
	Done() <-chan struct{}
}

// Scheduler starts periodic tasks
type Scheduler interface {
	Start(ctx context.Context, task Task, interval time.Duration) Handle
}

// Ticker is a Scheduler backed by time.Ticker. Runs never overlap: ticks that
// fire while a run is in progress are dropped rather than queued.
type Ticker struct{}

// NewTicker returns a Ticker scheduler
func NewTicker() *Ticker {
	return &Ticker{}
}

type tickerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start implements Scheduler
func (t *Ticker) Start(ctx context.Context, task Task, interval time.Duration) Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &tickerHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if ctx.Err() != nil {
				return
			}

			task(ctx)

			// drop a tick that fired during the run
			select {
			case <-ticker.C:
				log.Debug().Dur("interval", interval).Msg("run outlived the interval, tick skipped")
			default:
			}
		}
	}()

	return h
}

func (h *tickerHandle) Stop() {
	h.once.Do(h.cancel)
}

func (h *tickerHandle) Done() <-chan struct{} {
	return h.done
}
