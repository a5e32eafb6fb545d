package mcptoolkit

import (
	"slices"
	"sync"
)

// Status is a snapshot of the registry used by operational and debug tooling.
// The two environment flags are informational and never affect dispatch.
type Status struct {
	TotalTools              int      `json:"total_tools" yaml:"total_tools"`
	Tools                   []string `json:"tools" yaml:"tools"`
	CooperativeHostDetected bool     `json:"cooperative_host_detected" yaml:"cooperative_host_detected"`
	NestedLoopShimLoaded    bool     `json:"nested_loop_shim_loaded" yaml:"nested_loop_shim_loaded"`
}

// Registry maps tool identifiers to handlers. At most one handler is held per identifier;
// Register replaces silently. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	opts     registryOptions
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		handlers: make(map[string]Handler),
		opts:     o,
	}
}

// Register stores h under id. If a handler with the same id already exists, it is replaced.
// Panics if id is empty or h is the zero Handler.
func (r *Registry) Register(id string, h Handler) {
	if id == "" {
		panic("mcptoolkit: Register tool id must not be empty")
	}
	if !h.valid() {
		panic("mcptoolkit: Register handler must be built with Sync or Async")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = h
}

// Unregister removes id and reports whether it was registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handlers[id]
	delete(r.handlers, id)
	return ok
}

// Clear removes every handler.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.handlers)
}

// IsRegistered reports whether id has a handler.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[id]
	return ok
}

// Resolve returns the handler for id, or (Handler{}, false) if not registered.
func (r *Registry) Resolve(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns the registered identifiers sorted for deterministic order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// List maps each registered identifier to its handler label, e.g. "<async handler getWeather>".
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.handlers))
	for id, h := range r.handlers {
		out[id] = h.Label()
	}
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Status returns a snapshot: count, sorted identifiers, and environment flags.
func (r *Registry) Status() Status {
	r.mu.RLock()
	ids := r.idsLocked()
	r.mu.RUnlock()
	return Status{
		TotalTools:              len(ids),
		Tools:                   ids,
		CooperativeHostDetected: r.opts.host != nil && r.opts.host.Running(),
		NestedLoopShimLoaded:    r.opts.workerShim,
	}
}

// lookup resolves id and, when absent, snapshots the identifiers under the same lock so the
// NotFoundError payload matches the registry at resolution time.
func (r *Registry) lookup(id string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[id]; ok {
		return h, nil
	}
	return Handler{}, &NotFoundError{ToolID: id, Available: r.idsLocked()}
}
