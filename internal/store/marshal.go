package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
)

// marshalArgs converts call args to canonical JSON TEXT for storage.
func marshalArgs(args desc.Object) (string, error) {
	if args == nil {
		args = desc.Object{}
	}
	data, err := desc.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT back to descriptor form.
// Numbers come back as float64, matching what the engine recorded.
func unmarshalArgs(data string) (desc.Object, error) {
	if data == "" || data == "{}" {
		return desc.Object{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	obj, err := desc.NormalizeObject(m)
	if err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return obj, nil
}
