// Package schema compiles and validates the JSON-schema draft-07 subset
// used by message descriptors: type, enum, const, properties, required,
// additionalProperties, items, anyOf, additionalItems.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled, ready-to-validate document schema.
type Schema struct {
	raw    map[string]any
	loader gojsonschema.JSONLoader
	inner  *gojsonschema.Schema
}

// FieldError describes one structural validation failure.
type FieldError struct {
	Path   string
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Compile eagerly builds a Schema from a JSON-schema-like map literal,
// failing at catalog-build time rather than at first use.
func Compile(doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal document: %w", err)
	}
	loader := gojsonschema.NewBytesLoader(raw)
	inner, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Schema{raw: doc, loader: loader, inner: inner}, nil
}

// MustCompile panics if the document does not compile; intended for
// catalog construction at package-init time, where a broken schema is a
// programming error that should fail the process immediately.
func MustCompile(doc map[string]any) *Schema {
	s, err := Compile(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks raw JSON bytes against the compiled schema and returns the
// list of structural errors, empty when the payload is valid.
func (s *Schema) Validate(payload []byte) ([]FieldError, error) {
	result, err := s.inner.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("schema: validation system error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		path := desc.Field()
		if path == "" || path == "(root)" {
			path = "$"
		}
		errs = append(errs, FieldError{Path: path, Reason: desc.Description()})
	}
	return errs, nil
}

// Doc returns the raw schema document, used by descriptors that need to
// inspect or extend their own schema (e.g. prepending instance_id).
func (s *Schema) Doc() map[string]any {
	return s.raw
}

// FormatErrors renders field errors into a single human-readable string for
// logging, mirroring the teacher's FormatErrors helper but operating on the
// structured []FieldError instead of a gojsonschema.Result.
func FormatErrors(errs []FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	msg := ""
	for _, e := range errs {
		msg += fmt.Sprintf("- %s; ", e.String())
	}
	return msg
}
