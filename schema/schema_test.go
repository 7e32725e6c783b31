package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Valid(t *testing.T) {
	doc := Object(map[string]any{"name": map[string]any{"type": "string"}}, nil, true)
	_, err := Compile(doc)
	require.NoError(t, err)
}

func TestCompile_Invalid(t *testing.T) {
	doc := map[string]any{"type": "not-a-real-type"}
	_, err := Compile(doc)
	require.Error(t, err)
}

func TestValidate_ValidDocument(t *testing.T) {
	doc := Object(map[string]any{"name": map[string]any{"type": "string"}}, []string{"name"}, true)
	s, err := Compile(doc)
	require.NoError(t, err)

	errs, err := s.Validate([]byte(`{"name":"miku"}`))
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidate_InvalidDocument(t *testing.T) {
	doc := Object(map[string]any{"age": map[string]any{"type": "integer"}}, []string{"age"}, true)
	s, err := Compile(doc)
	require.NoError(t, err)

	errs, err := s.Validate([]byte(`{"age":"not-integer"}`))
	require.NoError(t, err)
	require.NotEmpty(t, errs)
	assert.NotEmpty(t, FormatErrors(errs))
}

func TestWithInstanceID_PrependsRequired(t *testing.T) {
	base := Object(map[string]any{"command": map[string]any{"type": "string"}}, []string{"command"}, true)
	withID := WithInstanceID(base)

	required, ok := withID["required"].([]string)
	require.True(t, ok)
	require.NotEmpty(t, required)
	assert.Equal(t, "instance_id", required[0])

	props, ok := withID["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "instance_id")
	assert.Contains(t, props, "command")
}

func TestResponseUnion_AcceptsSuccessAndError(t *testing.T) {
	doc := ResponseUnion(map[string]any{"list": map[string]any{"type": "array"}}, []string{"list"})
	s, err := Compile(doc)
	require.NoError(t, err)

	successErrs, err := s.Validate([]byte(`{"seq":1,"list":[]}`))
	require.NoError(t, err)
	assert.Empty(t, successErrs)

	errorErrs, err := s.Validate([]byte(`{"seq":1,"error":"denied"}`))
	require.NoError(t, err)
	assert.Empty(t, errorErrs)

	badErrs, err := s.Validate([]byte(`{"seq":"not-an-int"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, badErrs)
}
