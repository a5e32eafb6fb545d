package mcptoolkit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for mcptoolkit. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	// ErrNoToolsRegistered is matched in addition to ErrToolNotFound when the registry was empty.
	ErrNoToolsRegistered   = errors.New("no tools registered")
	ErrInvalidInput        = errors.New("invalid tool input")
	ErrHandlerFailed       = errors.New("tool handler failed")
	ErrNestedScheduler     = errors.New("synchronous call from inside a running loop")
	ErrTimeout             = errors.New("tool execution timeout")
	ErrUnknownExternalTool = errors.New("unknown external tool")
	ErrShutdown            = errors.New("dispatcher is shutting down")
	ErrLoopClosed          = errors.New("loop is closed")
)

// NotFoundError is returned when a tool identifier is not registered at call time.
// Available is the sorted list of identifiers registered at that moment.
type NotFoundError struct {
	ToolID    string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("tool not found: %q (no tools registered)", e.ToolID)
	}
	return fmt.Sprintf("tool not found: %q; available tools: %s", e.ToolID, strings.Join(e.Available, ", "))
}

// Unwrap supports errors.Is(err, ErrToolNotFound) and, for an empty registry, ErrNoToolsRegistered.
func (e *NotFoundError) Unwrap() []error {
	if len(e.Available) == 0 {
		return []error{ErrToolNotFound, ErrNoToolsRegistered}
	}
	return []error{ErrToolNotFound}
}

// InputError reports a raw argument mapping that failed validation. Dispatch never happened.
type InputError struct {
	Field  string // optional: offending field when known
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid tool input: field %q: %s", e.Field, e.Reason)
	}
	return "invalid tool input: " + e.Reason
}

func (e *InputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

// HandlerError wraps an error returned (or a panic raised) by a handler.
type HandlerError struct {
	ToolID string
	CallID string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolID, e.Err)
}

// Unwrap exposes both ErrHandlerFailed and the original handler error.
func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandlerFailed, e.Err}
}

// TimeoutError is returned when a call exceeds its deadline. It never matches ErrHandlerFailed.
type TimeoutError struct {
	ToolID  string
	Timeout time.Duration // 0 when the deadline came from the caller's context
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("tool %q timed out after %s", e.ToolID, e.Timeout)
	}
	return fmt.Sprintf("tool %q timed out", e.ToolID)
}

func (e *TimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Err}
}

// NestedSchedulerError is returned by CallSync in ExecInline mode when the caller runs on a Loop.
type NestedSchedulerError struct {
	ToolID string
}

func (e *NestedSchedulerError) Error() string {
	return fmt.Sprintf("call to tool %q: synchronous call from inside a running loop; use ExecWorker", e.ToolID)
}

func (e *NestedSchedulerError) Unwrap() error { return ErrNestedScheduler }

// ErrorKind classifies errors returned by the toolkit.
type ErrorKind string

const (
	KindNone                    ErrorKind = ""
	KindToolNotFound            ErrorKind = "ToolNotFound"
	KindInvalidInput            ErrorKind = "InvalidInput"
	KindHandlerFailed           ErrorKind = "HandlerFailed"
	KindNestedSchedulerConflict ErrorKind = "NestedSchedulerConflict"
	KindTimeout                 ErrorKind = "Timeout"
	KindUnknownExternalTool     ErrorKind = "UnknownExternalTool"
	KindOther                   ErrorKind = "Other"
)

// KindOf returns the kind of the outermost toolkit error in err's chain. A HandlerError whose
// handler itself failed with ErrToolNotFound is still KindHandlerFailed.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if k, ok := kindOf(e); ok {
			return k
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		case interface{ Unwrap() error }:
			if inner := u.Unwrap(); inner != nil {
				queue = append(queue, inner)
			}
		}
	}
	return KindOther
}

func kindOf(e error) (ErrorKind, bool) {
	switch e.(type) {
	case *NotFoundError:
		return KindToolNotFound, true
	case *InputError:
		return KindInvalidInput, true
	case *HandlerError:
		return KindHandlerFailed, true
	case *TimeoutError:
		return KindTimeout, true
	case *NestedSchedulerError:
		return KindNestedSchedulerConflict, true
	}
	switch e {
	case ErrToolNotFound, ErrNoToolsRegistered:
		return KindToolNotFound, true
	case ErrInvalidInput:
		return KindInvalidInput, true
	case ErrHandlerFailed:
		return KindHandlerFailed, true
	case ErrTimeout:
		return KindTimeout, true
	case ErrNestedScheduler:
		return KindNestedSchedulerConflict, true
	case ErrUnknownExternalTool:
		return KindUnknownExternalTool, true
	}
	return KindNone, false
}

// panicError wraps a recovered panic value; used by Dispatcher, Spawn and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
