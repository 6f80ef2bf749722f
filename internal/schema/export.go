package schema

import (
	"fmt"

	"github.com/voxlane/compat/errs"
)

// FromExport materialises a definition from a module export. Script-sourced
// extension packages declare data models as plain objects of the form
//
//	{ name: "PredictRequest", fields: [{ name, type, required, default }] }
//
// Native modules may export a *Definition directly; both shapes are accepted.
func FromExport(value any) (*Definition, error) {
	switch v := value.(type) {
	case *Definition:
		return v, nil
	case map[string]any:
		return fromObject(v)
	default:
		return nil, errs.New("", errs.CodeInvalid,
			errs.WithMessage(fmt.Sprintf("definition export has unsupported type %T", value)))
	}
}

func fromObject(obj map[string]any) (*Definition, error) {
	name, _ := obj["name"].(string)
	rawFields, ok := obj["fields"].([]any)
	if !ok {
		return nil, errs.New("", errs.CodeInvalid,
			errs.WithSymbol(name),
			errs.WithMessage("definition export missing fields array"))
	}
	fields := make([]FieldSpec, 0, len(rawFields))
	for i, raw := range rawFields {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, errs.New("", errs.CodeInvalid,
				errs.WithSymbol(name),
				errs.WithMessage(fmt.Sprintf("field %d must be an object", i)))
		}
		spec := FieldSpec{Name: "", Type: TypeAny, Required: false, Default: nil}
		spec.Name, _ = entry["name"].(string)
		if typ, ok := entry["type"].(string); ok && typ != "" {
			spec.Type = FieldType(typ)
		}
		spec.Required, _ = entry["required"].(bool)
		spec.Default = entry["default"]
		fields = append(fields, spec)
	}

	def, err := NewDefinition(name, fields)
	if err != nil {
		return nil, err
	}
	if extensible, _ := obj["extensible"].(bool); extensible {
		return def.Permissive(), nil
	}
	return def, nil
}
