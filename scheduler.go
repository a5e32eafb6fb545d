package mcptoolkit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Loop is a cooperative scheduler: a single goroutine (the one calling Run) executes submitted
// jobs one at a time. Jobs receive a context marked with the loop, which CallSync uses to refuse
// inline synchronous calls that would block the loop. A Loop runs once; create a new one to restart.
type Loop struct {
	jobs      chan loopJob
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	started   atomic.Bool
	running   atomic.Bool
}

type loopJob struct {
	ctx context.Context
	fn  func(context.Context)
}

type loopKey struct{}

var errLoopStarted = errors.New("mcptoolkit: loop already started")

// NewLoop creates a Loop whose queue holds up to buffer pending jobs.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		jobs:   make(chan loopJob, buffer),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run executes jobs on the calling goroutine until ctx is done (returns ctx.Err()) or Close is
// called (returns nil). Jobs still queued when Run returns are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errLoopStarted
	}
	l.running.Store(true)
	defer close(l.done)
	defer l.running.Store(false)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		case j := <-l.jobs:
			j.fn(context.WithValue(j.ctx, loopKey{}, l))
		}
	}
}

// Running reports whether Run is currently driving jobs.
func (l *Loop) Running() bool { return l.running.Load() }

// Close stops the loop after the job in progress. Safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

// Submit enqueues fn. It returns ErrLoopClosed if the loop is closed or finished, or ctx.Err()
// if ctx ends while the queue is full.
func (l *Loop) Submit(ctx context.Context, fn func(context.Context)) error {
	select {
	case <-l.closed:
		return ErrLoopClosed
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.jobs <- loopJob{ctx: ctx, fn: fn}:
		return nil
	case <-l.closed:
		return ErrLoopClosed
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do submits fn and waits for it to finish on the loop. A panic in fn is returned as an error.
// If the loop stops before running fn, Do returns ErrLoopClosed. Called from a job of this same
// loop, Do runs fn immediately on the loop goroutine instead of queueing it behind the caller.
func (l *Loop) Do(ctx context.Context, fn func(context.Context) error) error {
	if l.owns(ctx) {
		return runGuarded(ctx, fn)
	}
	result := make(chan error, 1)
	err := l.Submit(ctx, func(jobCtx context.Context) {
		defer func() {
			if p := recover(); p != nil {
				result <- &panicError{p: p}
			}
		}()
		result <- fn(jobCtx)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// Run returned; the job either completed before that or never started.
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

func runGuarded(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{p: p}
		}
	}()
	return fn(ctx)
}

// owns reports whether ctx belongs to a job of l.
func (l *Loop) owns(ctx context.Context) bool {
	return loopOf(ctx) == l
}

// wait blocks until done yields, running queued jobs of l meanwhile so work scheduled on the
// loop by the awaited goroutine can progress. It must only be called from a job of l.
func (l *Loop) wait(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case j := <-l.jobs:
			j.fn(context.WithValue(j.ctx, loopKey{}, l))
		}
	}
}

func loopOf(ctx context.Context) *Loop {
	l, _ := ctx.Value(loopKey{}).(*Loop)
	return l
}

// OnLoop reports whether ctx belongs to a job currently executed by a Loop.
func OnLoop(ctx context.Context) bool {
	return loopOf(ctx) != nil
}

// detachLoop returns a context that no longer reports OnLoop.
func detachLoop(ctx context.Context) context.Context {
	if !OnLoop(ctx) {
		return ctx
	}
	return context.WithValue(ctx, loopKey{}, (*Loop)(nil))
}
