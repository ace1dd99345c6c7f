// Package bridge serialises calls into engines that must not run
// concurrently.
//
// Some synthesis backends hold process-wide state (native libraries, rate
// limited HTTP endpoints) that tolerates exactly one in-flight request. The
// [Worker] funnels all such calls through a single persistent goroutine:
// callers block until their job completes or their deadline passes, while the
// worker itself never aborts a running job. A result arriving after the caller
// gave up is discarded.
package bridge

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Submit when the job did not finish within the
// caller's deadline. The job keeps running on the worker goroutine; its
// eventual result is dropped.
var ErrTimeout = errors.New("bridge: job timed out")

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("bridge: worker closed")

// Job is a unit of work executed on the worker goroutine.
type Job func(ctx context.Context) error

type submission struct {
	job  Job
	ctx  context.Context
	done chan error
}

// Worker runs submitted jobs one at a time on a single goroutine.
// The zero value is ready to use; the goroutine starts lazily on the first
// Submit call.
type Worker struct {
	start sync.Once
	once  sync.Once
	jobs  chan submission
	quit  chan struct{}
}

func (w *Worker) init() {
	w.start.Do(func() {
		w.jobs = make(chan submission)
		w.quit = make(chan struct{})
		go w.run()
	})
}

func (w *Worker) run() {
	for {
		select {
		case s := <-w.jobs:
			// Buffered done channel: the send never blocks, even when
			// the submitter has already abandoned the job.
			s.done <- s.job(s.ctx)
		case <-w.quit:
			return
		}
	}
}

// Submit hands job to the worker and blocks until it completes, the timeout
// elapses, or ctx is cancelled. A timeout of zero means no deadline beyond
// ctx. Jobs run strictly one at a time in submission order.
func (w *Worker) Submit(ctx context.Context, job Job, timeout time.Duration) error {
	w.init()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s := submission{job: job, ctx: ctx, done: make(chan error, 1)}

	select {
	case w.jobs <- s:
	case <-w.quit:
		return ErrClosed
	case <-ctx.Done():
		return waitErr(ctx)
	}

	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return waitErr(ctx)
	}
}

func waitErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

// Close stops the worker goroutine. A job already running finishes; its
// submitter still receives the result. Close is idempotent and safe to call
// before the first Submit.
func (w *Worker) Close() {
	w.init()
	w.once.Do(func() {
		close(w.quit)
	})
}
