// Package tools provides typed facades over the canonical tool identifiers: weather,
// cryptocurrency prices, notes and web search.
//
// A facade validates its input before dispatch, calls the Dispatcher with the fixed identifier
// and builds a typed response. Only the fields on a response type's allow-list are copied out of
// the result; everything else stays reachable through RawData, which always holds the full
// result.
//
// Required string inputs (location, crypto, content, query) must not be blank: an empty or
// whitespace-only value fails with *mcptoolkit.InputError naming the field, and nothing is
// dispatched.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/skosovsky/mcptoolkit"
)

// Canonical identifiers of the facade tools.
const (
	WeatherToolID   = "weather_service__get_weather"
	CryptoToolID    = "crypto_service__get_cryptocurrency_price"
	AddNoteToolID   = "notes_service__add_note_to_file"
	ReadNotesToolID = "notes_service__read_notes"
	WebSearchToolID = "web_service__perform_web_search"
)

// Caller dispatches calls by identifier. *mcptoolkit.Dispatcher implements it.
type Caller interface {
	Call(ctx context.Context, id string, args mcptoolkit.Args) (mcptoolkit.Result, error)
	CallSync(ctx context.Context, mode mcptoolkit.ExecMode, id string, args mcptoolkit.Args) (mcptoolkit.Result, error)
}

var _ Caller = (*mcptoolkit.Dispatcher)(nil)

// Facade is a typed entry point for one tool identifier.
type Facade[In, Out any] struct {
	id        string
	validator *mcptoolkit.Validator[In]
	build     func(in In, res mcptoolkit.Result) Out
}

// NewFacade creates a facade for id. build turns the validated input and the call result into
// the typed response. Panics if the input schema for In cannot be generated.
func NewFacade[In, Out any](id string, build func(In, mcptoolkit.Result) Out) *Facade[In, Out] {
	return &Facade[In, Out]{
		id:        id,
		validator: mcptoolkit.MustValidator[In](false),
		build:     build,
	}
}

// ID returns the tool identifier the facade dispatches to.
func (f *Facade[In, Out]) ID() string { return f.id }

// Schema returns the JSON Schema of the facade input.
func (f *Facade[In, Out]) Schema() map[string]any { return f.validator.Schema() }

// Call validates input and dispatches it through c, blocking until the handler completes or ctx
// ends. input is an In, a *In, or a raw argument map; nil is treated as an empty map.
// Validation failures are *mcptoolkit.InputError and no dispatch happens.
func (f *Facade[In, Out]) Call(ctx context.Context, c Caller, input any) (Out, error) {
	var zero Out
	in, args, err := f.prepare(input)
	if err != nil {
		return zero, err
	}
	res, err := c.Call(ctx, f.id, args)
	if err != nil {
		return zero, err
	}
	return f.build(in, res), nil
}

// CallSync is the synchronous entry point. mode has the same meaning as in
// mcptoolkit.Dispatcher.CallSync: use ExecWorker from inside a Loop job.
func (f *Facade[In, Out]) CallSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode, input any) (Out, error) {
	var zero Out
	in, args, err := f.prepare(input)
	if err != nil {
		return zero, err
	}
	res, err := c.CallSync(ctx, mode, f.id, args)
	if err != nil {
		return zero, err
	}
	return f.build(in, res), nil
}

// prepare validates input and returns it with the dispatch arguments, which omit unset fields.
func (f *Facade[In, Out]) prepare(input any) (In, mcptoolkit.Args, error) {
	var in In
	switch v := input.(type) {
	case In:
		in = v
	case *In:
		if v == nil {
			return in, nil, &mcptoolkit.InputError{Reason: "nil input"}
		}
		in = *v
	case map[string]any:
		return f.decode(v)
	case nil:
		return f.decode(mcptoolkit.Args{})
	default:
		return in, nil, &mcptoolkit.InputError{Reason: fmt.Sprintf("unsupported input type %T", input)}
	}
	args, err := f.validator.Encode(in)
	if err != nil {
		return in, nil, err
	}
	return in, args, nil
}

// decode validates raw input once and re-encodes it so only declared fields are dispatched.
func (f *Facade[In, Out]) decode(raw mcptoolkit.Args) (In, mcptoolkit.Args, error) {
	in, err := f.validator.Decode(raw)
	if err != nil {
		return in, nil, err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return in, nil, &mcptoolkit.InputError{Reason: "input is not JSON-encodable", Err: err}
	}
	args := mcptoolkit.Args{}
	if err := json.Unmarshal(data, &args); err != nil {
		return in, nil, &mcptoolkit.InputError{Reason: "input is not a JSON object", Err: err}
	}
	return in, args, nil
}

// asFloat reports numeric values as float64. Strings are not parsed.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func floatField(res mcptoolkit.Result, key string) *float64 {
	if f, ok := asFloat(res[key]); ok {
		return &f
	}
	return nil
}

// intField accepts integers and integral floats (JSON numbers decode as float64) within the
// range of int.
func intField(res mcptoolkit.Result, key string) *int {
	f, ok := asFloat(res[key])
	if !ok || f != math.Trunc(f) || f >= math.MaxInt || f < math.MinInt {
		return nil
	}
	i := int(f)
	return &i
}

func stringField(res mcptoolkit.Result, key string) *string {
	if s, ok := res[key].(string); ok {
		return &s
	}
	return nil
}

// textOf returns res[key] when it is a string, then the raw text of a normalized scalar result,
// then the JSON encoding of res.
func textOf(res mcptoolkit.Result, key string) string {
	if s, ok := res[key].(string); ok {
		return s
	}
	if s, ok := res[mcptoolkit.RawKey].(string); ok {
		return s
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprint(res)
	}
	return string(data)
}

// Schemas returns the input schema of every facade keyed by tool identifier.
func Schemas() map[string]map[string]any {
	return map[string]map[string]any{
		WeatherToolID:   Weather.Schema(),
		CryptoToolID:    Crypto.Schema(),
		AddNoteToolID:   AddNote.Schema(),
		ReadNotesToolID: Notes.Schema(),
		WebSearchToolID: WebSearch.Schema(),
	}
}
