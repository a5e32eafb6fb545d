// Package bridge adapts tools from external ecosystems into a mcptoolkit Registry.
//
// Each external tool declares one calling convention up front. AdaptAndRegister reads it
// once and registers an Async handler for the async conventions or a Sync handler for the
// synchronous fallback. Only names present in the fixed mapping table are registered; the
// rest are reported as UnknownToolError and skipped.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/skosovsky/mcptoolkit"
)

// Convention is the calling convention an external tool supports.
type Convention int

const (
	// ConventionAsyncInvoke is the preferred asynchronous invocation.
	ConventionAsyncInvoke Convention = iota + 1
	// ConventionAsyncRun is the secondary asynchronous invocation.
	ConventionAsyncRun
	// ConventionInvoke is the synchronous fallback.
	ConventionInvoke
)

func (c Convention) String() string {
	switch c {
	case ConventionAsyncInvoke:
		return "async_invoke"
	case ConventionAsyncRun:
		return "async_run"
	case ConventionInvoke:
		return "invoke"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// Async reports whether c is one of the asynchronous conventions.
func (c Convention) Async() bool {
	return c == ConventionAsyncInvoke || c == ConventionAsyncRun
}

// ExternalTool is a tool implemented outside this module.
// Invoke receives the call arguments as a single mapping.
type ExternalTool interface {
	Name() string
	Convention() Convention
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// InvokeFunc is the body of an external tool built with NewExternalTool.
type InvokeFunc func(ctx context.Context, args map[string]any) (any, error)

type funcTool struct {
	name string
	conv Convention
	fn   InvokeFunc
}

// NewExternalTool builds an ExternalTool from a function. Panics if fn is nil.
func NewExternalTool(name string, conv Convention, fn InvokeFunc) ExternalTool {
	if fn == nil {
		panic("bridge: NewExternalTool fn must not be nil")
	}
	return &funcTool{name: name, conv: conv, fn: fn}
}

func (t *funcTool) Name() string           { return t.name }
func (t *funcTool) Convention() Convention { return t.conv }
func (t *funcTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}

// ErrUnknownExternalTool is matched by UnknownToolError.
var ErrUnknownExternalTool = mcptoolkit.ErrUnknownExternalTool

// UnknownToolError reports an external tool whose name has no canonical identifier.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown external tool %q: no canonical identifier", e.Name)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownExternalTool }

// toolMapping is the fixed external name to canonical identifier table.
var toolMapping = map[string]string{
	"get_weather":              "weather_service__get_weather",
	"perform_web_search":       "web_service__perform_web_search",
	"add_note_to_file":         "notes_service__add_note_to_file",
	"read_notes":               "notes_service__read_notes",
	"get_cryptocurrency_price": "crypto_service__get_cryptocurrency_price",
}

// CanonicalID returns the registry identifier for an external tool name.
func CanonicalID(name string) (string, bool) {
	id, ok := toolMapping[name]
	return id, ok
}

// Mapping returns a copy of the external name to identifier table.
func Mapping() map[string]string {
	return maps.Clone(toolMapping)
}

// Option configures AdaptAndRegister.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for skip warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Report is the outcome of one AdaptAndRegister batch.
type Report struct {
	// Registered holds the canonical identifiers registered, in input order.
	Registered []string
	// Skipped holds one error per tool that was not registered.
	Skipped []*UnknownToolError
}

// Err joins the skip errors, or returns nil when every tool was registered.
func (r Report) Err() error {
	errs := make([]error, len(r.Skipped))
	for i, e := range r.Skipped {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// AdaptAndRegister wraps each known tool in a Handler and registers it under its canonical
// identifier. Unknown names are logged at warn level and skipped; the batch always completes.
// Nil entries are ignored.
func AdaptAndRegister(reg *mcptoolkit.Registry, tools []ExternalTool, opts ...Option) Report {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	var report Report
	for _, t := range tools {
		if t == nil {
			continue
		}
		id, ok := CanonicalID(t.Name())
		if !ok {
			err := &UnknownToolError{Name: t.Name()}
			o.logger.Warn("skipping external tool", "name", t.Name(), "error", err)
			report.Skipped = append(report.Skipped, err)
			continue
		}
		reg.Register(id, Handler(t))
		o.logger.Debug("registered external tool", "name", t.Name(), "tool", id, "convention", t.Convention().String())
		report.Registered = append(report.Registered, id)
	}
	return report
}

// Handler wraps t in a mcptoolkit Handler according to its convention. Unrecognized
// conventions use the synchronous fallback. Errors from t are returned unchanged.
func Handler(t ExternalTool) mcptoolkit.Handler {
	fn := func(ctx context.Context, args mcptoolkit.Args) (any, error) {
		return t.Invoke(ctx, args)
	}
	name := mcptoolkit.WithName(t.Name())
	if t.Convention().Async() {
		return mcptoolkit.Async(mcptoolkit.Spawn(fn), name)
	}
	return mcptoolkit.Sync(fn, name)
}

// Verify reports, for each external name, whether its canonical identifier is registered.
// Handlers are not invoked.
func Verify(reg *mcptoolkit.Registry, names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, name := range names {
		id, ok := CanonicalID(name)
		out[name] = ok && reg.IsRegistered(id)
	}
	return out
}

// Names returns the names of tools, for use with Verify.
func Names(tools []ExternalTool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		if t != nil {
			names = append(names, t.Name())
		}
	}
	return names
}
