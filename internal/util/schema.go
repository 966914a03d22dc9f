package util

import (
	"fmt"
	"math"
)

// ValidationError reports one rejected field. It is shared by agent
// configuration, message and tool argument validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Scalar JSON schema types accepted for tool arguments.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Arg declares one flat tool argument.
type Arg struct {
	Name        string
	Type        string
	Description string
	Optional    bool
}

// ArgsSchema builds the object schema announced to models for a flat list of
// scalar arguments. Arguments are required unless marked Optional.
func ArgsSchema(args ...Arg) map[string]any {
	props := make(map[string]any, len(args))
	var required []string
	for _, a := range args {
		typ := a.Type
		if typ == "" {
			typ = TypeString
		}
		prop := map[string]any{"type": typ}
		if a.Description != "" {
			prop["description"] = a.Description
		}
		props[a.Name] = prop
		if !a.Optional {
			required = append(required, a.Name)
		}
	}

	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateParameters checks decoded model arguments against an object schema:
// every required field must be present and declared scalar types must match.
// Undeclared fields are ignored.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range requiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, _ := props[name].(map[string]any)
		typ, _ := prop["type"].(string)
		if !matchesType(value, typ) {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("expected %s, got %T", typ, value)}
		}
	}
	return nil
}

// requiredFields accepts []string (built in Go) and []any (decoded from JSON).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// matchesType reports whether a JSON-decoded value fits a scalar type. Numbers
// arrive as float64; nil and unknown types always match.
func matchesType(value any, typ string) bool {
	if value == nil {
		return true
	}
	switch typ {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNumber:
		_, ok := value.(float64)
		return ok
	case TypeInteger:
		f, ok := value.(float64)
		return ok && f == math.Trunc(f)
	}
	return true
}
