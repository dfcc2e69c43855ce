// Package extract turns free-form model output into validated structured
// data.
//
// Two failure-handling policies are built on the same primitives and must be
// preserved per call site:
//
//   - Soft: extraction or validation failure yields a documented, stable
//     fallback value and never an error. Upstream (model/embedding/store)
//     failures still propagate.
//   - Strict: extraction failure raises an error; any upstream failure is
//     re-wrapped. Both carry the "Failed to <operation>" prefix.
//
// Error Handling:
//   - Sentinel errors allow errors.Is checks across the policy boundary.
//   - Strict wrappers are produced with Failedf.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtraction indicates no parseable JSON was found in the text.
	ErrExtraction = errors.New("no parseable JSON found")

	// ErrValidation indicates the extracted value violated its schema.
	ErrValidation = errors.New("schema validation failed")
)

// JSON locates a JSON object inside text and parses it.
//
// The span runs from the first '{' to the last '}'. This greedy scan is kept
// deliberately: the fallback behavior of every soft-policy caller is
// calibrated against it, and a balanced-brace scanner would change which
// fallback path fires when prose contains brace characters.
//
// Returns (nil, false) when no object is present or the span does not parse.
// Never returns an error.
func JSON(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}
	return out, true
}

// JSONArray is the array-shaped counterpart of JSON: first '[' to last ']'.
func JSONArray(text string) ([]any, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var out []any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, false
	}
	return out, true
}

// Object extracts a JSON object from text and decodes it into v.
// Returns an error wrapping ErrExtraction when no object can be parsed.
func Object(text string, v any) error {
	obj, ok := JSON(text)
	if !ok {
		return ErrExtraction
	}
	return decode(obj, v)
}

// Array extracts a JSON array from text and decodes it into v.
// Returns an error wrapping ErrExtraction when no array can be parsed.
func Array(text string, v any) error {
	arr, ok := JSONArray(text)
	if !ok {
		return ErrExtraction
	}
	return decode(arr, v)
}

// Decode round-trips an already-parsed JSON value into a typed destination.
// Used where callers validate items individually before decoding them.
func Decode(value, v any) error {
	return decode(value, v)
}

// decode round-trips a parsed JSON value into the typed destination.
func decode(value, v any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Failedf wraps err with the strict-policy error prefix.
// The message always starts with "Failed to <operation>".
func Failedf(operation string, err error) error {
	return fmt.Errorf("Failed to %s: %w", operation, err)
}
