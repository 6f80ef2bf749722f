// Package wrap installs option-injecting wrappers around native loader
// exports. The shipped use case: newer tensorlane releases flipped the
// default of the weightsOnly load option, breaking checkpoints the host
// ships; the wrapper restores an explicit default while always honouring a
// caller-supplied value.
package wrap

import (
	"github.com/voxlane/compat/errs"
	"github.com/voxlane/compat/internal/modules"
)

// LoadFunc is the calling convention for native loader exports.
type LoadFunc func(path string, opts map[string]any) (any, error)

// Wrapped is a loader carrying an injected default for one option key.
// It is the marker the installer uses to detect an existing wrapper, so a
// repeated install never stacks wrappers or re-applies the default.
type Wrapped struct {
	inner LoadFunc
	key   string
	value any
}

// Key returns the option key the wrapper injects.
func (w *Wrapped) Key() string { return w.key }

// Load delegates to the wrapped loader. When the caller omitted the option
// key, the injected default is added to a copy of the options; a
// caller-supplied value, zero values included, passes through untouched.
func (w *Wrapped) Load(path string, opts map[string]any) (any, error) {
	if _, ok := opts[w.key]; ok {
		return w.inner(path, opts)
	}
	merged := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		merged[k] = v
	}
	merged[w.key] = w.value
	return w.inner(path, merged)
}

// Install replaces the named loader export with a wrapper injecting
// opts[key]=value when absent. Installing over an existing wrapper is a
// no-op. A missing module, missing symbol, or non-loader export fails with
// the original export untouched.
func Install(registry *modules.Registry, moduleName, symbol, key string, value any) error {
	if registry == nil {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("module registry required"))
	}
	module, err := registry.Import(moduleName)
	if err != nil {
		return errs.New("", errs.CodeWrap,
			errs.WithModule(moduleName),
			errs.WithMessage("target module not importable"),
			errs.WithCause(err))
	}
	export, ok := module.Export(symbol)
	if !ok {
		return errs.New("", errs.CodeWrap,
			errs.WithModule(moduleName),
			errs.WithSymbol(symbol),
			errs.WithMessage("target export missing"))
	}

	var inner LoadFunc
	switch fn := export.(type) {
	case *Wrapped:
		return nil
	case LoadFunc:
		inner = fn
	case func(string, map[string]any) (any, error):
		inner = fn
	default:
		return errs.New("", errs.CodeWrap,
			errs.WithModule(moduleName),
			errs.WithSymbol(symbol),
			errs.WithMessage("target export is not a loader"))
	}

	module.SetExport(symbol, &Wrapped{inner: inner, key: key, value: value})
	return nil
}

// Loader resolves a loader export to a callable LoadFunc, transparently
// unwrapping an installed wrapper. Consumers use this instead of asserting
// the export type so wrapped and unwrapped exports stay interchangeable.
func Loader(export any) (LoadFunc, error) {
	switch fn := export.(type) {
	case *Wrapped:
		return fn.Load, nil
	case LoadFunc:
		return fn, nil
	case func(string, map[string]any) (any, error):
		return fn, nil
	default:
		return nil, errs.New("", errs.CodeWrap,
			errs.WithMessage("export is not a loader"))
	}
}
