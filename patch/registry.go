package patch

import (
	"strings"
	"sync"

	"github.com/voxlane/compat/errs"
)

// Registry holds the ordered set of known patches. Registration order within
// a phase is execution order. Patch definitions are registered once at
// process start and never mutated afterwards.
type Registry struct {
	mu      sync.RWMutex
	patches []Patch
	names   map[string]struct{}
}

// NewRegistry creates an empty patch registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:      sync.RWMutex{},
		patches: nil,
		names:   make(map[string]struct{}),
	}
}

// Register appends a patch to the registry, preserving registration order.
func (r *Registry) Register(p Patch) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errs.New("", errs.CodeInvalid, errs.WithMessage("patch name required"))
	}
	if p.Phase != PhasePreImport && p.Phase != PhasePostImport {
		return errs.New(name, errs.CodeInvalid, errs.WithMessage("patch phase required"))
	}
	if p.Apply == nil {
		return errs.New(name, errs.CodeInvalid, errs.WithMessage("patch action required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[name]; dup {
		return errs.New(name, errs.CodeConflict, errs.WithMessage("patch already registered"))
	}
	p.Name = name
	r.names[name] = struct{}{}
	r.patches = append(r.patches, p)
	return nil
}

// ForPhase returns the registered patches of the phase in registration order.
func (r *Registry) ForPhase(phase Phase) []Patch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Patch, 0, len(r.patches))
	for _, p := range r.patches {
		if p.Phase == phase {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered patches across all phases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patches)
}
