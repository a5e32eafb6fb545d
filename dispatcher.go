package mcptoolkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher resolves tool identifiers in a Registry, runs the handler under its execution model
// and normalizes the result. It starts no goroutines of its own except in CallSync with ExecWorker.
type Dispatcher struct {
	reg         *Registry
	opts        dispatcherOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewDispatcher creates a Dispatcher over reg. Panics if reg is nil.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	if reg == nil {
		panic("mcptoolkit: NewDispatcher registry must not be nil")
	}
	o := dispatcherOptions{
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Dispatcher{
		reg:  reg,
		opts: o,
		done: make(chan struct{}),
	}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Call resolves id and invokes its handler with args. Sync handlers run on the calling goroutine;
// async handlers are awaited until they deliver an Outcome or ctx is done.
//
// Errors: *NotFoundError (ErrToolNotFound), *HandlerError (ErrHandlerFailed), *TimeoutError
// (ErrTimeout), ErrShutdown, or the caller's context.Canceled. Nothing is retried.
func (d *Dispatcher) Call(ctx context.Context, id string, args Args) (Result, error) {
	d.mu.Lock()
	select {
	case <-d.done:
		d.mu.Unlock()
		return nil, ErrShutdown
	default:
	}
	mws := d.middlewares
	d.running.Add(1)
	d.mu.Unlock()
	defer d.running.Done()

	h, err := d.reg.lookup(id)
	if err != nil {
		d.opts.logger.ErrorContext(ctx, "tool not found", "tool", id, "error", err)
		return nil, err
	}
	if args == nil {
		args = Args{}
	}
	call := Call{ID: uuid.NewString(), ToolID: id, Args: args}
	invoke := d.invoker(h)
	for i := len(mws) - 1; i >= 0; i-- {
		invoke = mws[i](invoke)
	}
	return invoke(ctx, call)
}

// CallSync is the synchronous convenience entry point. mode is chosen by the caller:
// ExecInline fails with *NestedSchedulerError when ctx belongs to a Loop job, because blocking
// the loop goroutine could deadlock handlers that need the loop; ExecWorker runs the call on a
// dedicated goroutine detached from the loop and blocks until it completes. Called from a loop
// job, ExecWorker keeps running that loop's queued jobs while it waits, so handlers may
// schedule work on the loop (Loop.Do) without deadlocking.
func (d *Dispatcher) CallSync(ctx context.Context, mode ExecMode, id string, args Args) (Result, error) {
	switch mode {
	case ExecInline:
		if OnLoop(ctx) {
			err := &NestedSchedulerError{ToolID: id}
			d.opts.logger.ErrorContext(ctx, "nested scheduler conflict", "tool", id, "error", err)
			return nil, err
		}
		return d.Call(ctx, id, args)
	case ExecWorker:
		var (
			res  Result
			err  error
			done = make(chan struct{})
		)
		go func() {
			defer close(done)
			res, err = d.Call(detachLoop(ctx), id, args)
		}()
		if l := loopOf(ctx); l != nil {
			l.wait(done)
		} else {
			<-done
		}
		return res, err
	default:
		return nil, fmt.Errorf("mcptoolkit: unknown exec mode %v", mode)
	}
}

// invoker builds the innermost Invoker for h: timeout, hooks, panic recovery, error
// classification and result normalization.
func (d *Dispatcher) invoker(h Handler) Invoker {
	return func(ctx context.Context, call Call) (res Result, err error) {
		timeout := d.opts.timeout
		if h.Timeout() > 0 {
			timeout = h.Timeout()
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		summary := CallSummary{CallID: call.ID, ToolID: call.ToolID, Kind: h.Kind()}
		start := time.Now()
		// Recover defer is registered after onAfter so it runs first and sets err before the hook.
		defer func() {
			if d.opts.onAfter != nil {
				summary.Result = res
				summary.Error = err
				d.opts.onAfter(ctx, call, summary, time.Since(start))
			}
		}()
		if d.opts.recoverPanics {
			defer func() {
				if p := recover(); p != nil {
					res = nil
					err = &HandlerError{ToolID: call.ToolID, CallID: call.ID, Err: &panicError{p: p}}
					d.opts.logger.ErrorContext(ctx, "tool panicked", "tool", call.ToolID, "call_id", call.ID, "error", err)
				}
			}()
		}

		if d.opts.onBefore != nil {
			d.opts.onBefore(ctx, call)
		}
		d.opts.logger.DebugContext(ctx, "calling tool",
			"tool", call.ToolID, "call_id", call.ID, "kind", h.Kind().String(), "args", call.Args)

		raw, err := h.invoke(ctx, call.Args)
		if err != nil {
			err = classify(ctx, call, timeout, err)
			d.opts.logger.ErrorContext(ctx, "tool call failed",
				"tool", call.ToolID, "call_id", call.ID, "duration", time.Since(start), "error", err)
			return nil, err
		}
		res = Normalize(raw)
		d.opts.logger.DebugContext(ctx, "tool returned",
			"tool", call.ToolID, "call_id", call.ID, "duration", time.Since(start), "type", fmt.Sprintf("%T", raw))
		return res, nil
	}
}

// classify maps a handler error to the toolkit taxonomy. Deadline expiry becomes *TimeoutError,
// caller cancellation is passed through, everything else becomes *HandlerError.
func classify(ctx context.Context, call Call, timeout time.Duration, err error) error {
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{ToolID: call.ToolID, Timeout: timeout, Err: err}
	case errors.Is(ctxErr, context.Canceled) && errors.Is(err, context.Canceled):
		return fmt.Errorf("mcptoolkit: call to tool %q: %w", call.ToolID, err)
	default:
		return &HandlerError{ToolID: call.ToolID, CallID: call.ID, Err: err}
	}
}

// Shutdown closes the dispatcher for new calls and waits for in-flight calls or ctx to end.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	select {
	case <-d.done:
		d.mu.Unlock()
		return nil
	default:
		close(d.done)
	}
	d.mu.Unlock()
	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
