package mcptoolkit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Invoker runs one resolved call. The Dispatcher's innermost Invoker drives the handler.
type Invoker func(ctx context.Context, call Call) (Result, error)

// Middleware wraps an Invoker with cross-cutting behavior (logging, recovery, timeout, metrics).
type Middleware func(next Invoker) Invoker

// WithLogging returns a middleware that logs start, end, duration, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call Call) (Result, error) {
			logger.InfoContext(ctx, "tool start", "tool", call.ToolID, "call_id", call.ID)
			start := time.Now()
			res, err := next(ctx, call)
			dur := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "tool error", "tool", call.ToolID, "call_id", call.ID,
					"duration", dur, "kind", string(KindOf(err)), "error", err)
				return nil, err
			}
			logger.InfoContext(ctx, "tool end", "tool", call.ToolID, "call_id", call.ID, "duration", dur)
			return res, nil
		}
	}
}

// WithRecovery returns a middleware that recovers panics raised below it and returns a HandlerError.
// The Dispatcher already recovers handler panics unless WithRecoverPanics(false) is set; this
// middleware also covers panics in inner middleware.
func WithRecovery() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call Call) (res Result, err error) {
			defer func() {
				if p := recover(); p != nil {
					res = nil
					err = &HandlerError{ToolID: call.ToolID, CallID: call.ID, Err: &panicError{p: p}}
				}
			}()
			return next(ctx, call)
		}
	}
}

// WithTimeoutMiddleware returns a middleware that bounds every call by d. Named with the
// "Middleware" suffix to avoid collision with the HandlerOption WithTimeout. When several
// deadlines apply, the earliest wins. Expiry is reported as *TimeoutError carrying d.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Invoker) Invoker {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, call Call) (Result, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			res, err := next(ctx, call)
			var te *TimeoutError
			if errors.As(err, &te) && te.Timeout == 0 {
				te.Timeout = d
			}
			return res, err
		}
	}
}

// Use stores the given middlewares (first is outermost) and applies them to every subsequent call.
// Calling Use again replaces the chain; middlewares are never applied twice.
func (d *Dispatcher) Use(middlewares ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append([]Middleware(nil), middlewares...)
}
