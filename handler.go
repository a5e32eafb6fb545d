package mcptoolkit

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// HandlerKind tags the execution model of a Handler.
type HandlerKind int

const (
	// KindSync handlers run directly on the calling goroutine.
	KindSync HandlerKind = iota + 1
	// KindAsync handlers return a deferred computation that the Dispatcher awaits.
	KindAsync
)

func (k HandlerKind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	default:
		return "invalid"
	}
}

// Func is the body of a synchronous handler.
type Func func(ctx context.Context, args Args) (any, error)

// Task is the body of an asynchronous handler. It must return a channel that yields exactly one
// Outcome; the channel should be buffered so the task can finish even if nobody reads it
// (the Dispatcher stops waiting on timeout or cancellation). Use Spawn to build a well-behaved Task.
type Task func(ctx context.Context, args Args) <-chan Outcome

// Outcome is the completion value of a Task.
type Outcome struct {
	Value any
	Err   error
}

// Handler is a registered tool implementation: either Sync(fn) or Async(task).
// The zero Handler is invalid and cannot be registered.
type Handler struct {
	kind HandlerKind
	fn   Func
	task Task
	opts handlerOptions
}

// Sync builds a synchronous handler.
func Sync(fn Func, opts ...HandlerOption) Handler {
	if fn == nil {
		panic("mcptoolkit: Sync handler func must not be nil")
	}
	h := Handler{kind: KindSync, fn: fn}
	for _, opt := range opts {
		opt(&h.opts)
	}
	if h.opts.name == "" {
		h.opts.name = funcName(fn)
	}
	return h
}

// Async builds an asynchronous handler.
func Async(task Task, opts ...HandlerOption) Handler {
	if task == nil {
		panic("mcptoolkit: Async handler task must not be nil")
	}
	h := Handler{kind: KindAsync, task: task}
	for _, opt := range opts {
		opt(&h.opts)
	}
	if h.opts.name == "" {
		h.opts.name = funcName(task)
	}
	return h
}

// Spawn turns fn into a Task that runs fn on its own goroutine. The returned channel is
// buffered; a panic in fn is delivered as an Outcome error.
func Spawn(fn Func) Task {
	return func(ctx context.Context, args Args) <-chan Outcome {
		out := make(chan Outcome, 1)
		go func() {
			defer func() {
				if p := recover(); p != nil {
					out <- Outcome{Err: &panicError{p: p}}
				}
			}()
			v, err := fn(ctx, args)
			out <- Outcome{Value: v, Err: err}
		}()
		return out
	}
}

// Kind returns the execution model tag.
func (h Handler) Kind() HandlerKind { return h.kind }

// Name returns the handler name (WithName, or the Go function name).
func (h Handler) Name() string { return h.opts.name }

// Timeout returns the per-handler timeout set with WithTimeout, or 0.
func (h Handler) Timeout() time.Duration { return h.opts.timeout }

// Label is the human-readable description shown by Registry.List.
func (h Handler) Label() string {
	return fmt.Sprintf("<%s handler %s>", h.kind, h.opts.name)
}

func (h Handler) valid() bool {
	switch h.kind {
	case KindSync:
		return h.fn != nil
	case KindAsync:
		return h.task != nil
	default:
		return false
	}
}

// invoke drives the handler to completion. Async handlers are awaited until their Outcome
// arrives or ctx is done.
func (h Handler) invoke(ctx context.Context, args Args) (any, error) {
	switch h.kind {
	case KindSync:
		return h.fn(ctx, args)
	case KindAsync:
		ch := h.task(ctx, args)
		if ch == nil {
			return nil, fmt.Errorf("async handler %s returned a nil channel", h.opts.name)
		}
		select {
		case out, ok := <-ch:
			if !ok {
				return nil, fmt.Errorf("async handler %s closed its channel without an outcome", h.opts.name)
			}
			return out.Value, out.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	default:
		return nil, fmt.Errorf("invalid handler kind %d", h.kind)
	}
}

// funcName returns the short Go function name of fn, e.g. "main.getWeather" -> "getWeather".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "anonymous"
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
