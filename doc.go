// Package mcptoolkit provides a registry and dispatch engine for named, schema-validated
// tools invoked by identifier and keyword arguments (typically on behalf of an LLM agent).
//
// # Overview
//
// Handlers are registered under stable string identifiers such as
// "weather_service__get_weather". A Dispatcher resolves the identifier, drives the handler
// under its execution model (synchronous Func or asynchronous Task), and normalizes whatever
// it returns into a Result map.
//
// Pipeline: Handler (Sync or Async) → Registry.Register → Dispatcher.Call (resolve, invoke,
// await, normalize) → Result. Typed request/response envelopes live in package tools; the
// adapter for external tool ecosystems lives in package bridge.
//
// # Key concepts
//
//   - Tagged handlers: Sync(fn) runs on the caller goroutine, Async(task) returns a channel
//     that the Dispatcher awaits. The Dispatcher branches on the tag, never on reflection.
//   - Canonical results: a map return is used as-is; anything else becomes
//     {"data": v, "raw": fmt.Sprint(v)}.
//   - Error taxonomy: ErrToolNotFound, ErrInvalidInput, ErrHandlerFailed, ErrTimeout and
//     ErrNestedScheduler are surfaced to the caller unchanged; nothing is retried.
//   - Explicit execution context: CallSync takes an ExecMode chosen by the caller. Calling
//     it inline from a Loop job fails with ErrNestedScheduler; ExecWorker is the shim.
//
// # Example
//
//	reg := mcptoolkit.NewRegistry()
//	reg.Register("weather_service__get_weather", mcptoolkit.Sync(func(_ context.Context, a mcptoolkit.Args) (any, error) {
//	    return map[string]any{"temperature": 18, "condition": "Rainy"}, nil
//	}))
//	d := mcptoolkit.NewDispatcher(reg)
//	res, err := d.Call(ctx, "weather_service__get_weather", mcptoolkit.Args{"location": "Tokyo"})
package mcptoolkit
