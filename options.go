package mcptoolkit

import (
	"context"
	"log/slog"
	"time"
)

// handlerOptions hold optional handler settings (name, timeout).
type handlerOptions struct {
	name    string
	timeout time.Duration
}

// HandlerOption configures a Handler (e.g. WithName, WithTimeout).
type HandlerOption func(*handlerOptions)

// WithName sets the handler name shown in Registry.List. Defaults to the Go function name.
func WithName(name string) HandlerOption {
	return func(o *handlerOptions) {
		o.name = name
	}
}

// WithTimeout sets a per-handler timeout. It overrides the dispatcher default (WithDefaultTimeout).
func WithTimeout(d time.Duration) HandlerOption {
	return func(o *handlerOptions) {
		o.timeout = d
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	host       *Loop
	workerShim bool
}

// WithSchedulerHost records the Loop the application hosts. Status reports
// cooperative_host_detected while that loop is running. Informational only.
func WithSchedulerHost(l *Loop) RegistryOption {
	return func(o *registryOptions) {
		o.host = l
	}
}

// WithWorkerShim records that callers use ExecWorker for synchronous calls made from Loop jobs.
// Status reports it as nested_loop_shim_loaded. Informational only.
func WithWorkerShim(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.workerShim = enable
	}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	timeout       time.Duration
	recoverPanics bool
	logger        *slog.Logger
	onBefore      func(context.Context, Call)
	onAfter       func(context.Context, Call, CallSummary, time.Duration)
}

// WithDefaultTimeout sets the default per-call timeout. Zero (the default) means no timeout.
func WithDefaultTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.timeout = d
	}
}

// WithRecoverPanics enables panic recovery in Call (the panic becomes a HandlerError). Enabled by default.
func WithRecoverPanics(enable bool) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.recoverPanics = enable
	}
}

// WithLogger sets the logger used for call tracing. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithOnBeforeCall sets a hook called before each handler invocation.
func WithOnBeforeCall(fn func(context.Context, Call)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterCall sets a hook called after each handler invocation, successful or not.
func WithOnAfterCall(fn func(context.Context, Call, CallSummary, time.Duration)) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.onAfter = fn
	}
}
