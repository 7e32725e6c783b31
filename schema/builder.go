package schema

// Object builds a draft-07 object schema document from a property map and a
// required-property list. additionalProperties controls whether unknown
// fields are rejected.
func Object(properties map[string]any, required []string, additionalProperties bool) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": additionalProperties,
	}
	if len(required) > 0 {
		doc["required"] = append([]string{}, required...)
	}
	return doc
}

// WithInstanceID returns a copy of doc with instance_id: integer prepended to
// both properties and the required list, per Invariant 2: forwardTo ==
// "instance" implies instance_id is a required, schema-enforced property.
func WithInstanceID(doc map[string]any) map[string]any {
	out := shallowCopy(doc)

	props, _ := out["properties"].(map[string]any)
	newProps := map[string]any{"instance_id": map[string]any{"type": "integer"}}
	for k, v := range props {
		newProps[k] = v
	}
	out["properties"] = newProps

	required, _ := out["required"].([]string)
	out["required"] = append([]string{"instance_id"}, required...)
	return out
}

// ResponseUnion builds the standard {success} | {seq, error} response schema
// described in §3: the success shape always includes seq, and the error
// shape is {seq: integer, error: string}.
func ResponseUnion(successProperties map[string]any, successRequired []string) map[string]any {
	success := Object(mergeProps(map[string]any{"seq": map[string]any{"type": "integer"}}, successProperties),
		append([]string{"seq"}, successRequired...), true)

	errShape := Object(map[string]any{
		"seq":   map[string]any{"type": "integer"},
		"error": map[string]any{"type": "string"},
	}, []string{"seq", "error"}, true)

	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"anyOf":   []any{success, errShape},
	}
}

func mergeProps(base map[string]any, extra map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func shallowCopy(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
