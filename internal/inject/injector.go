// Package inject publishes bundled fallback modules under import names the
// installed extension packages no longer provide. The real package always
// wins: a name that already imports successfully is never touched, and a
// fallback that cannot be fully built is never published (a half-initialised
// module would surface as confusing partial-attribute errors instead of a
// clear import failure).
package inject

import (
	"embed"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/voxlane/compat/errs"
	"github.com/voxlane/compat/internal/modules"
)

//go:embed fallback/*.js fallback/manifest.yaml
var fallbackFS embed.FS

const manifestPath = "fallback/manifest.yaml"

type manifest struct {
	Fallbacks []FallbackSpec `yaml:"fallbacks"`
}

// FallbackSpec describes one bundled fallback module.
type FallbackSpec struct {
	Module  string   `yaml:"module"`
	Source  string   `yaml:"source"`
	Exports []string `yaml:"exports"`
}

// Injector builds and publishes fallback modules into a module registry.
type Injector struct {
	registry *modules.Registry
	assets   fs.FS
	specs    map[string]FallbackSpec
}

// NewInjector constructs an injector over the bundled fallback sources.
func NewInjector(registry *modules.Registry) (*Injector, error) {
	return newInjector(registry, fallbackFS)
}

func newInjector(registry *modules.Registry, assets fs.FS) (*Injector, error) {
	if registry == nil {
		return nil, errs.New("", errs.CodeInvalid, errs.WithMessage("module registry required"))
	}
	raw, err := fs.ReadFile(assets, manifestPath)
	if err != nil {
		return nil, errs.New("", errs.CodeInjection,
			errs.WithMessage("fallback manifest missing"),
			errs.WithCause(err))
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errs.New("", errs.CodeInjection,
			errs.WithMessage("fallback manifest malformed"),
			errs.WithCause(err))
	}
	specs := make(map[string]FallbackSpec, len(m.Fallbacks))
	for _, spec := range m.Fallbacks {
		specs[spec.Module] = spec
	}
	return &Injector{registry: registry, assets: assets, specs: specs}, nil
}

// Known reports whether a bundled fallback exists for the import name.
func (i *Injector) Known(target string) bool {
	_, ok := i.specs[target]
	return ok
}

// Ensure makes the target import name resolvable. If a real module imports
// successfully nothing happens. Otherwise the bundled fallback source is
// executed into a fresh module and published; any failure before publication
// leaves the registry unmodified.
func (i *Injector) Ensure(target string) error {
	if _, err := i.registry.Import(target); err == nil {
		return nil
	}

	spec, ok := i.specs[target]
	if !ok {
		return errs.New("", errs.CodeInjection,
			errs.WithModule(target),
			errs.WithMessage("no bundled fallback for module"))
	}

	source, err := fs.ReadFile(i.assets, "fallback/"+spec.Source)
	if err != nil {
		return errs.New("", errs.CodeInjection,
			errs.WithModule(target),
			errs.WithMessage("fallback source missing"),
			errs.WithCause(err))
	}

	module, err := modules.ExecuteScript(target, spec.Source, source)
	if err != nil {
		return errs.New("", errs.CodeInjection,
			errs.WithModule(target),
			errs.WithMessage("fallback source failed to execute"),
			errs.WithCause(err))
	}
	for _, symbol := range spec.Exports {
		if !module.HasExport(symbol) {
			return errs.New("", errs.CodeInjection,
				errs.WithModule(target),
				errs.WithSymbol(symbol),
				errs.WithMessage("fallback missing required export"))
		}
	}

	module.Origin = modules.OriginInjected
	if err := i.registry.Install(module); err != nil {
		return errs.New("", errs.CodeInjection,
			errs.WithModule(target),
			errs.WithMessage("publish fallback module"),
			errs.WithCause(err))
	}
	return nil
}
