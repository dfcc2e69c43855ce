package extract

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// MustResolve resolves a schema at package init time.
// Panics on malformed schemas; deliverable schemas are compile-time constants
// so a failure here is a programming error.
func MustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("extract: invalid schema: %v", err))
	}
	return resolved
}

// Valid reports whether value satisfies the resolved schema.
// Range and shape violations cause rejection, never coercion.
func Valid(schema *jsonschema.Resolved, value any) bool {
	return schema.Validate(value) == nil
}

// ValidatedObject extracts a JSON object from text, validates it against
// schema, and decodes it into v. It returns:
//
//   - ErrExtraction (wrapped) when no parseable object is present
//   - ErrValidation (wrapped) when the object violates the schema
//
// Callers apply their soft or strict policy on top of these sentinels.
func ValidatedObject(text string, schema *jsonschema.Resolved, v any) error {
	obj, ok := JSON(text)
	if !ok {
		return ErrExtraction
	}
	if err := schema.Validate(obj); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return decode(obj, v)
}

// Float returns a pointer to v, for use in schema literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for use in schema literals.
func Int(v int) *int { return &v }
