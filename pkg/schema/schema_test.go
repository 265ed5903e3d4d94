package schema_test

import (
	"testing"

	"github.com/aretw0/teller/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loanParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount":  map[string]any{"type": "number"},
			"purpose": map[string]any{"type": "string"},
			"top_k":   map[string]any{"type": "integer"},
			"urgent":  map[string]any{"type": "boolean"},
			"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"purpose"},
	}
}

func TestFromParameters(t *testing.T) {
	s, err := schema.FromParameters(loanParams())
	require.NoError(t, err)
	assert.Equal(t, []string{"purpose"}, s.Required)
	assert.Equal(t, "array<string>", s.Fields["tags"].Name())

	empty, err := schema.FromParameters(nil)
	require.NoError(t, err)
	assert.NoError(t, empty.Validate(map[string]any{"anything": 1}))

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"not an object", map[string]any{"type": "array"}, "must be an object"},
		{"unknown type", map[string]any{"properties": map[string]any{"x": map[string]any{"type": "date"}}}, "unsupported type: date"},
		{"bad property", map[string]any{"properties": map[string]any{"x": "string"}}, "property x"},
		{"undefined required", map[string]any{"properties": map[string]any{}, "required": []string{"card_id"}}, "not defined"},
		{"bad required", map[string]any{"required": "card_id"}, "must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.FromParameters(tt.params)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	s, err := schema.FromParameters(loanParams())
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"valid", map[string]any{"purpose": "Education", "amount": 15000.0, "top_k": 3.0}, ""},
		{"numeric strings", map[string]any{"purpose": "Car", "amount": "15000", "top_k": "2"}, ""},
		{"extra arguments ignored", map[string]any{"purpose": "Car", "user_id": "user123"}, ""},
		{"null optional", map[string]any{"purpose": "Car", "amount": nil}, ""},
		{"missing required", map[string]any{"amount": 1.0}, "missing required argument 'purpose'"},
		{"null required", map[string]any{"purpose": nil}, "missing required argument 'purpose'"},
		{"wrong number", map[string]any{"purpose": "Car", "amount": "lots"}, "invalid argument 'amount'"},
		{"fractional integer", map[string]any{"purpose": "Car", "top_k": 2.5}, "not a whole number"},
		{"wrong bool", map[string]any{"purpose": "Car", "urgent": "yes"}, "expected boolean"},
		{"wrong element", map[string]any{"purpose": "Car", "tags": []any{"a", 1.0}}, "element 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.args)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate_Aggregates(t *testing.T) {
	s, err := schema.FromParameters(loanParams())
	require.NoError(t, err)

	err = s.Validate(map[string]any{"amount": true})
	require.Error(t, err)
	errs := schema.ValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, err.Error(), "2 validation errors")

	var nilSchema *schema.Schema
	assert.NoError(t, nilSchema.Validate(nil))
}

func TestCustom(t *testing.T) {
	s := &schema.Schema{Fields: map[string]schema.Type{
		"brand": schema.Custom("brand", func(v any) error {
			if v != "visa" && v != "mastercard" && v != "rupay" {
				return assert.AnError
			}
			return nil
		}),
	}}
	assert.NoError(t, s.Validate(map[string]any{"brand": "visa"}))
	assert.Error(t, s.Validate(map[string]any{"brand": "amex"}))
}
