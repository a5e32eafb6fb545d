package mcptoolkit

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType maps a Go type to a JSON Schema type/format in generated input schemas.
// emptyInstance is a value of the type (e.g. uuid.UUID{}); jsonType must not be empty; format is optional.
// Pointer fields (*T) use the mapping of T. Call at startup before the first NewValidator.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("mcptoolkit: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("mcptoolkit: RegisterType jsonType must not be empty")
	}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[reflect.TypeOf(emptyInstance)] = &jsonschema.Schema{Type: jsonType, Format: format}
}

// typeSchemas copies the registered type schemas for jsonschema.ForOptions.
func typeSchemas() map[reflect.Type]*jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(customTypes))
	for t, s := range customTypes {
		out[t] = s.CloneSchemas()
	}
	return out
}

var errNilSchema = errors.New("mcptoolkit: schema reflection returned nil")

// inputSchema builds the JSON Schema map and resolved validator for input type T.
// Fields without omitempty are required. strict keeps unknown keys forbidden on every object.
func inputSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{TypeSchemas: typeSchemas()})
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, errNilSchema
	}
	schemaMap, err := toMap(s)
	if err != nil {
		return nil, nil, err
	}
	describeFromTags(schemaMap, reflect.TypeFor[T]())
	// Struct objects come back closed (additionalProperties: false). Lenient mode reopens them
	// so extra keys sent by a model are ignored on decode.
	if !strict {
		walkSchema(schemaMap, func(n map[string]any) {
			if closed, ok := n["additionalProperties"].(bool); ok && !closed {
				delete(n, "additionalProperties")
			}
		})
	}
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
	resolved, err := resolveSchema(schemaMap)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// describeFromTags copies `description` and comma-separated `enum` struct tags onto the matching
// top-level properties, keyed by the json field name.
func describeFromTags(schemaMap map[string]any, typ reflect.Type) {
	if typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok {
		return
	}
	for field := range typ.Fields() {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		prop, ok := props[name].(map[string]any)
		if name == "" || name == "-" || !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			var values []any
			for v := range strings.SplitSeq(enum, ",") {
				values = append(values, strings.TrimSpace(v))
			}
			prop["enum"] = values
		}
	}
}

// walkSchema visits every object node in the schema tree, including $defs.
func walkSchema(node map[string]any, visit func(map[string]any)) {
	if node == nil {
		return
	}
	visit(node)
	for _, val := range node {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// requiredFields returns the sorted top-level required property names of schemaMap.
func requiredFields(schemaMap map[string]any) []string {
	raw, _ := schemaMap["required"].([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// resolveSchema compiles a schema map into a validator. The map is not mutated.
func resolveSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
