package schema

import (
	json "github.com/goccy/go-json"
)

// Instance is a validated payload bound to the definition that produced it.
// Instances are structural: any consumer accepting an instance of a
// definition accepts instances of that definition's permissive variant.
type Instance struct {
	def    *Definition
	values map[string]any
	extras map[string]any
}

// Definition returns the definition the instance was validated against.
func (i *Instance) Definition() *Definition { return i.def }

// Get returns the value of a declared or retained undeclared field.
func (i *Instance) Get(name string) (any, bool) {
	if value, ok := i.values[name]; ok {
		return value, true
	}
	value, ok := i.extras[name]
	return value, ok
}

// Extra returns the value of a retained undeclared field only.
func (i *Instance) Extra(name string) (any, bool) {
	value, ok := i.extras[name]
	return value, ok
}

// Extras returns a copy of all retained undeclared fields.
func (i *Instance) Extras() map[string]any {
	out := make(map[string]any, len(i.extras))
	for k, v := range i.extras {
		out[k] = v
	}
	return out
}

// MarshalJSON renders declared and retained fields as a single object.
func (i *Instance) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(i.values)+len(i.extras))
	for k, v := range i.values {
		merged[k] = v
	}
	for k, v := range i.extras {
		merged[k] = v
	}
	return json.Marshal(merged)
}
