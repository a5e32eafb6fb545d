// Package testutil provides test helpers for mcptoolkit (e.g. MockHandler).
package testutil

import (
	"context"
	"maps"
	"sync"

	"github.com/skosovsky/mcptoolkit"
)

// MockHandler is a configurable handler body that records every call.
// Fn, when set, takes precedence over Result and Err.
type MockHandler struct {
	Result any
	Err    error
	Fn     mcptoolkit.Func

	mu    sync.Mutex
	calls []mcptoolkit.Args
}

// Func returns the recording handler body.
func (m *MockHandler) Func() mcptoolkit.Func {
	return func(ctx context.Context, args mcptoolkit.Args) (any, error) {
		m.mu.Lock()
		m.calls = append(m.calls, maps.Clone(args))
		m.mu.Unlock()
		if m.Fn != nil {
			return m.Fn(ctx, args)
		}
		return m.Result, m.Err
	}
}

// Sync returns the mock as a synchronous handler.
func (m *MockHandler) Sync(opts ...mcptoolkit.HandlerOption) mcptoolkit.Handler {
	return mcptoolkit.Sync(m.Func(), append([]mcptoolkit.HandlerOption{mcptoolkit.WithName("mock")}, opts...)...)
}

// Async returns the mock as an asynchronous handler.
func (m *MockHandler) Async(opts ...mcptoolkit.HandlerOption) mcptoolkit.Handler {
	return mcptoolkit.Async(mcptoolkit.Spawn(m.Func()), append([]mcptoolkit.HandlerOption{mcptoolkit.WithName("mock")}, opts...)...)
}

// Calls returns how many times the handler ran.
func (m *MockHandler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastArgs returns the arguments of the most recent call, or nil.
func (m *MockHandler) LastArgs() mcptoolkit.Args {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
