// Package patch defines the compat patch model and the orchestrator that
// applies patches in phases around the host's import of protected extension
// packages. Patching is explicit and auditable: each remediation is a named
// Patch value with a declared phase and an applicability predicate, applied
// through a single entry point behind a failure boundary.
package patch

import (
	"github.com/voxlane/compat/internal/modules"
	"github.com/voxlane/compat/internal/probe"
)

// Phase declares when a patch must run relative to the host's import of the
// protected packages.
type Phase string

const (
	// PhasePreImport patches run before the host first imports the protected
	// packages, for remediations that must exist before import resolution
	// (e.g. supplying a module the import machinery is about to look up).
	PhasePreImport Phase = "pre_import"
	// PhasePostImport patches run after that import completes, for
	// remediations targeting surfaces only populated at import time.
	PhasePostImport Phase = "post_import"
)

// State classifies the result of attempting a patch.
type State string

const (
	// StateApplied marks a patch whose action ran to completion.
	StateApplied State = "applied"
	// StateSkipped marks a patch whose predicate declined or that already ran.
	StateSkipped State = "skipped"
	// StateFailed marks a patch whose action errored or panicked. The
	// orchestrator treats it like a skip; the distinction is diagnostic.
	StateFailed State = "failed"
)

// Env is the state patches evaluate and act against: the process module
// registry and a prober over it. Predicates must be pure functions of probed
// dependency state; actions mutate the registry.
type Env struct {
	Registry *modules.Registry
	Prober   *probe.Prober
}

// NewEnv constructs an environment over the provided registry.
func NewEnv(registry *modules.Registry) *Env {
	return &Env{Registry: registry, Prober: probe.NewProber(registry)}
}

// Patch is a named, idempotent unit of remediation. Patches within a phase
// are independent: no patch may rely on another patch's side effect in the
// same run, since any patch may be skipped.
type Patch struct {
	Name  string
	Phase Phase
	When  func(*Env) bool
	Apply func(*Env) error
}

// Outcome records one attempt of one patch within an orchestrator run.
type Outcome struct {
	RunID  string `json:"run_id"`
	Patch  string `json:"patch"`
	Phase  Phase  `json:"phase"`
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}
