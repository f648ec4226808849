package schema

// JSONSchema renders the schema as a JSON Schema document suitable for
// provider-side constrained decoding (Gemini responseJsonSchema, Ollama format).
func (s *Schema) JSONSchema() map[string]any {
	out := map[string]any{}
	if s.Name != "" {
		out["title"] = s.Name
	}
	if s.Description != "" {
		out["description"] = s.Description
	}

	switch s.Kind {
	case KindString:
		out["type"] = "string"
		if s.MinLength > 0 {
			out["minLength"] = s.MinLength
		}

	case KindArray:
		out["type"] = "array"
		if s.Items != nil {
			out["items"] = s.Items.JSONSchema()
		}
		if s.MinItems > 0 {
			out["minItems"] = s.MinItems
		}

	case KindObject:
		out["type"] = "object"
		props := make(map[string]any, len(s.Fields))
		ordering := make([]string, 0, len(s.Fields))
		required := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			props[f.Name] = f.Schema.JSONSchema()
			ordering = append(ordering, f.Name)
			if f.Required {
				required = append(required, f.Name)
			}
		}
		out["properties"] = props
		out["propertyOrdering"] = ordering
		if len(required) > 0 {
			out["required"] = required
		}

	case KindMap:
		out["type"] = "object"
		if s.Values != nil {
			out["additionalProperties"] = s.Values.JSONSchema()
		}
		if s.Keys != nil && s.Keys.MinLength > 0 {
			out["propertyNames"] = map[string]any{"minLength": s.Keys.MinLength}
		}
	}

	return out
}
