package schema

import (
	"fmt"
	"sort"
)

// Schema is the compiled form of a tool's parameters.
type Schema struct {
	// Fields maps property names to their expected types.
	Fields map[string]Type
	// Required lists the properties a call must carry.
	Required []string
}

// FromParameters compiles a JSON Schema "parameters" object. A nil or
// empty object yields an empty Schema that accepts any arguments.
func FromParameters(params map[string]any) (*Schema, error) {
	s := &Schema{Fields: make(map[string]Type)}
	if len(params) == 0 {
		return s, nil
	}
	if t, ok := params["type"]; ok && t != "object" {
		return nil, fmt.Errorf("parameters must be an object, got %v", t)
	}

	if raw, ok := params["properties"]; ok && raw != nil {
		props, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("properties must be a mapping, got %T", raw)
		}
		for name, def := range props {
			prop, ok := def.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s: definition must be a mapping", name)
			}
			t, err := FromProperty(prop)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			s.Fields[name] = t
		}
	}

	if raw, ok := params["required"]; ok && raw != nil {
		var list []any
		switch r := raw.(type) {
		case []any:
			list = r
		case []string:
			for _, name := range r {
				list = append(list, name)
			}
		default:
			return nil, fmt.Errorf("required must be a list, got %T", raw)
		}
		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("required entries must be strings, got %T", item)
			}
			if _, known := s.Fields[name]; !known {
				return nil, fmt.Errorf("required property %s is not defined", name)
			}
			s.Required = append(s.Required, name)
		}
	}
	return s, nil
}

// Validate checks args against the schema. Required properties must be
// present and non-null; known properties must match their type. Extra
// arguments are ignored. A nil Schema accepts everything.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil {
		return nil
	}

	var errs []error
	for _, name := range s.Required {
		if v, ok := args[name]; !ok || v == nil {
			errs = append(errs, &ValidationError{Key: name, Reason: reasonRequired})
		}
	}

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, exists := args[name]
		if !exists || value == nil {
			continue
		}
		if err := s.Fields[name].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    name,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
