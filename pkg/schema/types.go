package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the JSON Schema name of the type (e.g., "string", "integer").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntegerType validates whole numbers, including whole floats from JSON
// decoding and integer strings.
type IntegerType struct{}

func (t *IntegerType) Name() string { return "integer" }

func (t *IntegerType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected integer, got float (not a whole number)")
	case string:
		if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
			return fmt.Errorf("expected integer, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

// NumberType validates numeric values and numeric strings.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// ArrayType validates slices of a specific element type.
type ArrayType struct {
	elemType Type
}

func (t *ArrayType) Name() string {
	return fmt.Sprintf("array<%s>", t.elemType.Name())
}

func (t *ArrayType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", value)
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// AnyType accepts every value. It stands for properties with no type.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(value any) error { return nil }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Integer creates an integer type validator.
func Integer() Type { return &IntegerType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Array creates an array type validator for elements of the given type.
func Array(elemType Type) Type {
	return &ArrayType{elemType: elemType}
}

// Any creates a validator that accepts everything.
func Any() Type { return &AnyType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// FromProperty converts one JSON Schema property definition to a Type.
func FromProperty(prop map[string]any) (Type, error) {
	typeName, _ := prop["type"].(string)
	switch typeName {
	case "":
		return Any(), nil
	case "string":
		return String(), nil
	case "integer":
		return Integer(), nil
	case "number":
		return Number(), nil
	case "boolean":
		return Bool(), nil
	case "array":
		items, ok := prop["items"].(map[string]any)
		if !ok {
			return Array(Any()), nil
		}
		elem, err := FromProperty(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		return Array(elem), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeName)
	}
}
