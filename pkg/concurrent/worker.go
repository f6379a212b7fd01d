package concurrent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

var (
	ErrWorkerClosed = errors.New("worker closed")
	// ErrQueueFull is returned by Submit when the job queue has no room. The
	// owner frees room by draining completions.
	ErrQueueFull = errors.New("worker queue full")
)

// Completion is the outcome of one submitted job.
type Completion[R any] struct {
	ID    uint64
	Value R
	Err   error
}

type job[R any] struct {
	id  uint64
	ctx context.Context
	fn  func(context.Context) (R, error)
}

// Worker runs submitted jobs one at a time on a single background goroutine.
// Results come back through a single-producer/single-consumer completion
// queue that the owning goroutine empties with Drain or Next. Submit, Drain,
// Next and Close must all be called from the owner.
//
// Submit never blocks: at most depth jobs wait to run, and a full queue is
// reported as ErrQueueFull.
type Worker[R any] struct {
	jobs   chan job[R]
	done   chan Completion[R]
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	nextID uint64
	queued int
	closed bool
}

// NewWorker starts a worker that holds up to depth jobs that have not been
// drained yet. The worker stops when ctx is cancelled or Close is called.
func NewWorker[R any](ctx context.Context, depth int) *Worker[R] {
	if depth < 1 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	w := &Worker[R]{
		jobs:   make(chan job[R], depth),
		done:   make(chan Completion[R], depth),
		group:  g,
		ctx:    ctx,
		cancel: cancel,
	}
	g.Go(w.run)
	return w
}

func (w *Worker[R]) run() error {
	for {
		select {
		case <-w.ctx.Done():
			return nil
		case j, ok := <-w.jobs:
			if !ok {
				return nil
			}
			c := Completion[R]{ID: j.id}
			c.Value, c.Err = w.exec(j)
			select {
			case w.done <- c:
			case <-w.ctx.Done():
				return nil
			}
		}
	}
}

// exec runs j under a context that ends with either the submitter's context
// or the worker's.
func (w *Worker[R]) exec(j job[R]) (R, error) {
	ctx, cancel := context.WithCancel(j.ctx)
	defer cancel()
	stop := context.AfterFunc(w.ctx, cancel)
	defer stop()
	if err := ctx.Err(); err != nil {
		var zero R
		return zero, err
	}
	return j.fn(ctx)
}

// Submit queues fn to run under ctx and returns its completion ID. While the
// worker runs, every accepted job yields one completion, even when ctx ends
// before the job starts.
func (w *Worker[R]) Submit(ctx context.Context, fn func(context.Context) (R, error)) (uint64, error) {
	if w.closed || w.ctx.Err() != nil {
		return 0, ErrWorkerClosed
	}
	// Jobs waiting plus completions not drained never exceed the completion
	// queue, so the background goroutine can always hand its result over.
	if w.queued >= cap(w.done) {
		return 0, ErrQueueFull
	}
	id := w.nextID + 1
	select {
	case w.jobs <- job[R]{id: id, ctx: ctx, fn: fn}:
	default:
		return 0, ErrQueueFull
	}
	w.nextID = id
	w.queued++
	return id, nil
}

// Drain hands every completion currently queued to apply without blocking and
// returns how many were applied.
func (w *Worker[R]) Drain(apply func(Completion[R])) int {
	n := 0
	for {
		select {
		case c := <-w.done:
			w.queued--
			apply(c)
			n++
		default:
			return n
		}
	}
}

// Next blocks until one completion is available or ctx ends.
func (w *Worker[R]) Next(ctx context.Context) (Completion[R], error) {
	select {
	case c := <-w.done:
		w.queued--
		return c, nil
	case <-ctx.Done():
		return Completion[R]{}, ctx.Err()
	case <-w.ctx.Done():
		return Completion[R]{}, ErrWorkerClosed
	}
}

// Queued reports how many accepted jobs have not been drained.
func (w *Worker[R]) Queued() int { return w.queued }

// Close stops accepting jobs, cancels anything not yet started and waits for
// the background goroutine. Completions already queued stay drainable.
func (w *Worker[R]) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel()
	err := w.group.Wait()
	close(w.jobs)
	return err
}
