// Package replace substitutes a permissive data-model definition for the
// original across every namespace that binds it. The rebind is all-or-nothing:
// a partial rebind would leave different code paths validating logically the
// same payload against different definitions, which is the exact
// incompatibility being fixed.
package replace

import (
	"reflect"

	"github.com/voxlane/compat/errs"
	"github.com/voxlane/compat/internal/modules"
	"github.com/voxlane/compat/internal/schema"
)

// Target names one (module, symbol) binding of the definition.
type Target struct {
	Module string
	Symbol string
}

// Replacer rebinds a definition symbol across a fixed list of namespaces.
// Source names the canonical namespace providing the original definition;
// Targets lists every namespace to rebind, Source included.
type Replacer struct {
	Source  Target
	Targets []Target
}

// Run builds the permissive replacement from the original definition and
// rebinds it in every target namespace. The replacement is fully constructed
// and validated before any namespace is touched; resolution of all targets
// happens up front so a missing module or symbol aborts with nothing rebound.
func (r *Replacer) Run(registry *modules.Registry) error {
	if registry == nil {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("module registry required"))
	}
	if len(r.Targets) == 0 {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("rebind targets required"))
	}

	source, err := registry.Import(r.Source.Module)
	if err != nil {
		return errs.New("", errs.CodeReplacement,
			errs.WithModule(r.Source.Module),
			errs.WithMessage("source module not importable"),
			errs.WithCause(err))
	}
	export, ok := source.Export(r.Source.Symbol)
	if !ok {
		return errs.New("", errs.CodeReplacement,
			errs.WithModule(r.Source.Module),
			errs.WithSymbol(r.Source.Symbol),
			errs.WithMessage("original definition not exported"))
	}
	original, err := schema.FromExport(export)
	if err != nil {
		return errs.New("", errs.CodeReplacement,
			errs.WithModule(r.Source.Module),
			errs.WithSymbol(r.Source.Symbol),
			errs.WithMessage("original definition unreadable"),
			errs.WithCause(err))
	}

	replacement := original.Permissive()
	if err := verifyParity(original, replacement); err != nil {
		return err
	}

	// Resolve every namespace before rebinding any of them.
	resolved := make([]*modules.Module, 0, len(r.Targets))
	for _, target := range r.Targets {
		module, err := registry.Import(target.Module)
		if err != nil {
			return errs.New("", errs.CodeReplacement,
				errs.WithModule(target.Module),
				errs.WithMessage("rebind target not importable"),
				errs.WithCause(err))
		}
		if !module.HasExport(target.Symbol) {
			return errs.New("", errs.CodeReplacement,
				errs.WithModule(target.Module),
				errs.WithSymbol(target.Symbol),
				errs.WithMessage("rebind target symbol missing"))
		}
		resolved = append(resolved, module)
	}

	for i, module := range resolved {
		module.SetExport(r.Targets[i].Symbol, replacement)
	}
	return nil
}

// verifyParity confirms the replacement carries every declared field of the
// original with identical specs. Permissive construction guarantees this;
// the check keeps the no-partial-commit contract honest if construction ever
// changes.
func verifyParity(original, replacement *schema.Definition) error {
	for _, field := range original.Fields() {
		got, ok := replacement.Field(field.Name)
		if !ok || !reflect.DeepEqual(got, field) {
			return errs.New("", errs.CodeReplacement,
				errs.WithSymbol(field.Name),
				errs.WithMessage("replacement dropped or altered a declared field"))
		}
	}
	if !replacement.AllowsExtra() {
		return errs.New("", errs.CodeReplacement,
			errs.WithMessage("replacement must accept undeclared fields"))
	}
	return nil
}
