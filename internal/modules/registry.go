package modules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/voxlane/compat/errs"
)

// ErrModuleNotFound reports import names no source can resolve.
var ErrModuleNotFound = errors.New("module not found")

// Source resolves import names to modules; the registry consults sources in
// order, mirroring the host's import machinery.
type Source interface {
	Load(name string) (*Module, error)
}

// Registry maintains the table of loaded modules plus the ordered sources
// used to resolve names that have not loaded yet.
type Registry struct {
	mu      sync.RWMutex
	loaded  map[string]*Module
	sources []Source
}

// NewRegistry creates a registry consulting the provided sources in order.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{
		mu:      sync.RWMutex{},
		loaded:  make(map[string]*Module),
		sources: append([]Source(nil), sources...),
	}
}

// AddSource appends a resolver consulted after all previously added sources.
func (r *Registry) AddSource(source Source) {
	if source == nil {
		return
	}
	r.mu.Lock()
	r.sources = append(r.sources, source)
	r.mu.Unlock()
}

// Lookup returns the already-loaded module for the name without consulting
// sources and without caching side effects.
func (r *Registry) Lookup(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, ok := r.loaded[normalize(name)]
	return module, ok
}

// Import resolves the name to a module: loaded modules win, otherwise each
// source is consulted in order and the first hit is cached. Sources that do
// not know the name report ErrModuleNotFound and resolution continues; any
// other source error aborts the import (a broken module is an import failure,
// not a missing one).
func (r *Registry) Import(name string) (*Module, error) {
	key := normalize(name)
	if key == "" {
		return nil, errs.New("", errs.CodeInvalid, errs.WithMessage("module name required"))
	}

	r.mu.RLock()
	if module, ok := r.loaded[key]; ok {
		r.mu.RUnlock()
		return module, nil
	}
	sources := r.sources
	r.mu.RUnlock()

	for _, source := range sources {
		module, err := source.Load(key)
		if err != nil {
			if errors.Is(err, ErrModuleNotFound) {
				continue
			}
			return nil, fmt.Errorf("import %q: %w", key, err)
		}
		if module == nil {
			continue
		}
		r.mu.Lock()
		// A concurrent import may have won the race; the first load stays.
		if existing, ok := r.loaded[key]; ok {
			r.mu.Unlock()
			return existing, nil
		}
		r.loaded[key] = module
		r.mu.Unlock()
		return module, nil
	}
	return nil, fmt.Errorf("import %q: %w", key, ErrModuleNotFound)
}

// Install publishes a module under its name. A name that already resolved to
// a loaded module is never overwritten.
func (r *Registry) Install(module *Module) error {
	if module == nil {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("module required"))
	}
	key := normalize(module.Name)
	if key == "" {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("module name required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[key]; ok {
		return errs.New("", errs.CodeConflict,
			errs.WithModule(key),
			errs.WithMessage("module already loaded"))
	}
	r.loaded[key] = module
	return nil
}

// Loaded returns the names of all loaded modules in unspecified order.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	return names
}

func normalize(name string) string {
	return strings.Trim(strings.TrimSpace(name), "/")
}
