package mcptoolkit

import (
	"fmt"
	"strings"
)

// Args are the keyword arguments of a single tool call.
type Args = map[string]any

// Result is the canonical invocation result. A successful Dispatcher call never returns a nil Result.
type Result = map[string]any

// Keys used by Normalize when a handler returns something other than a map.
const (
	DataKey = "data"
	RawKey  = "raw"
)

// ToolIDSeparator separates the service and operation parts of a tool identifier.
const ToolIDSeparator = "__"

// Call is a single dispatch as seen by hooks and middleware.
// ID is unique per call; ToolID is the registry identifier.
type Call struct {
	ID     string
	ToolID string
	Args   Args
}

// CallSummary is passed to the after-call hook (WithOnAfterCall) when a call finishes.
type CallSummary struct {
	CallID string
	ToolID string
	Kind   HandlerKind
	Result Result
	Error  error
}

// ExecMode selects how CallSync runs a call relative to the caller's goroutine.
type ExecMode int

const (
	// ExecInline runs the call on the caller's goroutine. It fails with ErrNestedScheduler
	// when the caller is a job running on a Loop.
	ExecInline ExecMode = iota
	// ExecWorker runs the call on a dedicated goroutine and blocks until it finishes.
	ExecWorker
)

func (m ExecMode) String() string {
	switch m {
	case ExecInline:
		return "inline"
	case ExecWorker:
		return "worker"
	default:
		return fmt.Sprintf("ExecMode(%d)", int(m))
	}
}

// ParseExecMode parses "inline" or "worker" (case-insensitive).
func ParseExecMode(s string) (ExecMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inline", "":
		return ExecInline, nil
	case "worker":
		return ExecWorker, nil
	default:
		return ExecInline, fmt.Errorf("unknown exec mode %q", s)
	}
}

// Normalize converts a raw handler return value into a Result.
// Maps are returned unchanged; any other value v becomes {"data": v, "raw": fmt.Sprint(v)}.
func Normalize(v any) Result {
	if m, ok := v.(map[string]any); ok {
		if m == nil {
			return Result{}
		}
		return m
	}
	return Result{DataKey: v, RawKey: fmt.Sprint(v)}
}

// SplitToolID splits "service__operation" into its parts. ok is false when the separator is missing
// or either part is empty.
func SplitToolID(id string) (service, operation string, ok bool) {
	service, operation, found := strings.Cut(id, ToolIDSeparator)
	if !found || service == "" || operation == "" {
		return "", "", false
	}
	return service, operation, true
}
