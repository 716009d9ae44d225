package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CTAG07/fae/pkg/value"
	"github.com/CTAG07/fae/pkg/vm"
)

// loadBindings decodes a JSON object at path into value.Bindings. An
// empty path yields empty bindings, matching fae's contract that an
// unbound name simply renders empty rather than erroring; a path that
// names a file which cannot be read is an error.
func loadBindings(path string) (value.Bindings, error) {
	if path == "" {
		return value.Bindings{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse bindings file as a JSON object: %w", err)
	}

	out := make(value.Bindings, len(raw))
	for k, v := range raw {
		out[k] = jsonToValue(v)
	}
	return out, nil
}

// jsonToValue converts one decoded JSON value into a vm.Value. Nested
// objects have no representation in fae's value model (there is no
// dotted-field access in the grammar), so they fall back to their JSON
// text rather than being dropped silently.
func jsonToValue(v any) vm.Value {
	switch x := v.(type) {
	case bool:
		return value.Bool(x)
	case float64:
		return value.Float(x)
	case string:
		return value.String(x)
	case []any:
		list := make(value.List, len(x))
		for i, elem := range x {
			list[i] = jsonToValue(elem)
		}
		return list
	case nil:
		return value.String("")
	default:
		text, _ := json.Marshal(x)
		return value.String(text)
	}
}
