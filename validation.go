package mcptoolkit

import "errors"

// Validatable is implemented by input structs that need checks beyond the schema.
// Validate runs after schema validation and decoding. Returning an *InputError keeps its Field.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON-like value. *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// checkSchema validates an already-decoded JSON value against the input schema.
func checkSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &InputError{Reason: err.Error(), Err: err}
	}
	return nil
}

// checkCustom runs Validatable on in, falling back to &in for pointer receivers.
// Each check calls Validate at most once.
func checkCustom[T any](in T) error {
	v, ok := any(in).(Validatable)
	if !ok {
		v, ok = any(&in).(Validatable)
	}
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var ie *InputError
	if errors.As(err, &ie) {
		return ie
	}
	return &InputError{Reason: err.Error(), Err: err}
}
