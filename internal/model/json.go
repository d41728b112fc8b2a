package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NormalizeJSONField coerces a stored JSON field into its structured form.
//
// Different write paths have persisted these fields either as native JSON
// structures or as JSON-encoded strings (the structure serialized twice).
// This function is the single normalization boundary: it accepts both shapes
// and always returns the parsed structure, so everything past the storage
// layer only ever sees structured data. It is idempotent: normalizing an
// already-normalized value returns it unchanged.
//
// Empty input and JSON null both normalize to nil.
func NormalizeJSONField(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	// A leading quote means the field was stored as a JSON-encoded string.
	// Unwrap it and normalize the inner document.
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("model: unwrapping string-encoded JSON field: %w", err)
		}
		return NormalizeJSONField([]byte(inner))
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("model: field is not valid JSON")
	}

	return json.RawMessage(trimmed), nil
}

// DecodeJSONField normalizes a stored JSON field and unmarshals it into dest.
// A nil normalized value leaves dest untouched.
func DecodeJSONField(raw []byte, dest any) error {
	normalized, err := NormalizeJSONField(raw)
	if err != nil {
		return err
	}
	if normalized == nil {
		return nil
	}
	if err := json.Unmarshal(normalized, dest); err != nil {
		return fmt.Errorf("model: decoding JSON field: %w", err)
	}
	return nil
}
