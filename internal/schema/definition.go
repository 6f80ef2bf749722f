// Package schema defines data-model definitions used by extension packages
// to validate payloads. A Definition is the single source of truth for a
// payload shape; permissive variants accept undeclared fields so newer
// producers keep working against older consumers.
package schema

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/voxlane/compat/errs"
)

// FieldType constrains the values a declared field accepts.
type FieldType string

const (
	// TypeString accepts string values.
	TypeString FieldType = "string"
	// TypeInt accepts integral numeric values.
	TypeInt FieldType = "int"
	// TypeFloat accepts numeric values.
	TypeFloat FieldType = "float"
	// TypeBool accepts boolean values.
	TypeBool FieldType = "bool"
	// TypeList accepts array values.
	TypeList FieldType = "list"
	// TypeMap accepts object values.
	TypeMap FieldType = "map"
	// TypeAny accepts any value.
	TypeAny FieldType = "any"
)

// FieldSpec declares one field of a definition.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
}

// Definition is a named, ordered set of field specs plus an extra-field policy.
type Definition struct {
	name       string
	fields     []FieldSpec
	index      map[string]int
	allowExtra bool
}

// NewDefinition constructs a strict definition (undeclared fields rejected).
func NewDefinition(name string, fields []FieldSpec) (*Definition, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errs.New("", errs.CodeInvalid, errs.WithMessage("definition name required"))
	}
	index := make(map[string]int, len(fields))
	specs := make([]FieldSpec, 0, len(fields))
	for _, field := range fields {
		fieldName := strings.TrimSpace(field.Name)
		if fieldName == "" {
			return nil, errs.New("", errs.CodeInvalid, errs.WithMessage("field name required"))
		}
		if _, dup := index[fieldName]; dup {
			return nil, errs.New("", errs.CodeInvalid,
				errs.WithSymbol(fieldName),
				errs.WithMessage("duplicate field declaration"))
		}
		if field.Type == "" {
			field.Type = TypeAny
		}
		field.Name = fieldName
		index[fieldName] = len(specs)
		specs = append(specs, field)
	}
	return &Definition{name: trimmed, fields: specs, index: index, allowExtra: false}, nil
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// AllowsExtra reports whether undeclared fields are retained rather than rejected.
func (d *Definition) AllowsExtra() bool { return d.allowExtra }

// Fields returns a copy of the declared field specs in declaration order.
func (d *Definition) Fields() []FieldSpec {
	out := make([]FieldSpec, len(d.fields))
	copy(out, d.fields)
	return out
}

// Field returns the declared spec for the named field.
func (d *Definition) Field(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return d.fields[i], true
}

// Permissive returns a clone of the definition that additionally accepts and
// retains undeclared fields. Every declared field spec, including defaults
// and optionality, is preserved. The receiver is left untouched.
func (d *Definition) Permissive() *Definition {
	fields := make([]FieldSpec, len(d.fields))
	copy(fields, d.fields)
	index := make(map[string]int, len(d.index))
	for k, v := range d.index {
		index[k] = v
	}
	return &Definition{name: d.name, fields: fields, index: index, allowExtra: true}
}

// Decode unmarshals a JSON payload and builds a validated instance.
func (d *Definition) Decode(data []byte) (*Instance, error) {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errs.New("", errs.CodeInvalid,
			errs.WithSymbol(d.name),
			errs.WithMessage("payload must be a JSON object"),
			errs.WithCause(err))
	}
	return d.Build(values)
}

// Build validates raw values against the definition: required fields must be
// present, optional fields take their declared default, declared types are
// enforced, and undeclared fields are rejected or retained per the
// extra-field policy.
func (d *Definition) Build(values map[string]any) (*Instance, error) {
	out := make(map[string]any, len(d.fields))
	for _, field := range d.fields {
		value, ok := values[field.Name]
		if !ok {
			if field.Required {
				return nil, errs.New("", errs.CodeInvalid,
					errs.WithSymbol(field.Name),
					errs.WithMessage(fmt.Sprintf("%s: required field missing", d.name)))
			}
			out[field.Name] = field.Default
			continue
		}
		if value != nil && !acceptsValue(field.Type, value) {
			return nil, errs.New("", errs.CodeInvalid,
				errs.WithSymbol(field.Name),
				errs.WithMessage(fmt.Sprintf("%s: field type mismatch, want %s", d.name, field.Type)))
		}
		out[field.Name] = value
	}

	var extras map[string]any
	for name, value := range values {
		if _, declared := d.index[name]; declared {
			continue
		}
		if !d.allowExtra {
			return nil, errs.New("", errs.CodeInvalid,
				errs.WithSymbol(name),
				errs.WithMessage(fmt.Sprintf("%s: undeclared field", d.name)))
		}
		if extras == nil {
			extras = make(map[string]any)
		}
		extras[name] = value
	}

	return &Instance{def: d, values: out, extras: extras}, nil
}

func acceptsValue(typ FieldType, value any) bool {
	switch typ {
	case TypeAny:
		return true
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBool:
		_, ok := value.(bool)
		return ok
	case TypeInt:
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case TypeFloat:
		switch value.(type) {
		case float32, float64, int, int32, int64:
			return true
		default:
			return false
		}
	case TypeList:
		_, ok := value.([]any)
		return ok
	case TypeMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return false
	}
}
