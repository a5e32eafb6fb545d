package mcptoolkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validator turns raw argument mappings into typed inputs of type T and back.
// It owns the JSON Schema generated for T; fields without omitempty are required.
// Safe for concurrent use.
type Validator[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
	required  []string
}

// NewValidator creates a Validator for T. strict rejects keys not declared by T.
func NewValidator[T any](strict bool) (*Validator[T], error) {
	schemaMap, resolved, err := inputSchema[T](strict)
	if err != nil {
		return nil, fmt.Errorf("mcptoolkit: schema for %T: %w", *new(T), err)
	}
	return &Validator[T]{
		schemaMap: schemaMap,
		resolved:  resolved,
		required:  requiredFields(schemaMap),
	}, nil
}

// MustValidator is like NewValidator but panics on error. Intended for package-level variables.
func MustValidator[T any](strict bool) *Validator[T] {
	v, err := NewValidator[T](strict)
	if err != nil {
		panic(err)
	}
	return v
}

// Schema returns a shallow copy of the JSON Schema. Nested maps are shared; do not mutate them.
func (v *Validator[T]) Schema() map[string]any {
	return maps.Clone(v.schemaMap)
}

// Required returns the required field names, sorted.
func (v *Validator[T]) Required() []string {
	return append([]string(nil), v.required...)
}

// Decode validates args against the schema, decodes them into T and runs Validatable.
// Every failure is an *InputError matching ErrInvalidInput.
func (v *Validator[T]) Decode(args Args) (T, error) {
	var zero T
	for _, name := range v.required {
		if _, ok := args[name]; !ok {
			return zero, &InputError{Field: name, Reason: "required field is missing"}
		}
	}
	if args == nil {
		args = Args{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return zero, &InputError{Reason: "arguments are not JSON-encodable", Err: err}
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return zero, &InputError{Reason: err.Error(), Err: err}
	}
	if err := checkSchema(v.resolved, generic); err != nil {
		return zero, err
	}
	var in T
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return zero, decodeError(err)
	}
	if err := checkCustom(in); err != nil {
		return zero, err
	}
	return in, nil
}

// Encode converts in to dispatch arguments. Fields marked omitempty and left unset are omitted.
func (v *Validator[T]) Encode(in T) (Args, error) {
	if err := checkCustom(in); err != nil {
		return nil, err
	}
	args, err := toMap(in)
	if err != nil {
		return nil, &InputError{Reason: "input is not JSON-encodable", Err: err}
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

func decodeError(err error) *InputError {
	if te, ok := err.(*json.UnmarshalTypeError); ok {
		return &InputError{
			Field:  te.Field,
			Reason: fmt.Sprintf("expected %s, got %s", te.Type, te.Value),
			Err:    err,
		}
	}
	return &InputError{Reason: err.Error(), Err: err}
}
