// Package codec provides wire payload transformers. JSON is the default;
// any ports.Transformer may replace it to encode richer value types.
package codec

import (
	"encoding/json"
	"fmt"
)

// JSON is the default transformer: encoding/json text with the standard
// media type. Serialize and Deserialize are mutual inverses for every
// JSON-representable value.
type JSON struct{}

// Serialize encodes a value as JSON text.
func (JSON) Serialize(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return string(data), nil
}

// Deserialize decodes JSON text into a generic value.
func (JSON) Deserialize(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	return v, nil
}

// ContentType returns the JSON media type.
func (JSON) ContentType() string { return "application/json" }
