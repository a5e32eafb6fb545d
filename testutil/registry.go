package testutil

import (
	"time"

	"github.com/skosovsky/mcptoolkit"
)

// NewTestDispatcher returns a Dispatcher over a fresh Registry holding handlers, with a long
// timeout and panic recovery enabled, suitable for tests. opts are applied after the defaults.
func NewTestDispatcher(handlers map[string]mcptoolkit.Handler, opts ...mcptoolkit.DispatcherOption) *mcptoolkit.Dispatcher {
	reg := mcptoolkit.NewRegistry()
	for id, h := range handlers {
		reg.Register(id, h)
	}
	defaults := []mcptoolkit.DispatcherOption{
		mcptoolkit.WithDefaultTimeout(30 * time.Second),
		mcptoolkit.WithRecoverPanics(true),
	}
	return mcptoolkit.NewDispatcher(reg, append(defaults, opts...)...)
}
