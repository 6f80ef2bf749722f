package patch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"

	"github.com/voxlane/compat/internal/observability"
)

// Orchestrator applies registered patches phase by phase. Every predicate
// and action runs inside a failure boundary: errors and panics downgrade to
// a failed outcome and never reach the host. Applying a phase twice is
// idempotent; a patch's action runs at most once per process lifetime.
type Orchestrator struct {
	mu       sync.Mutex
	registry *Registry
	env      *Env
	applied  map[string]bool
}

// NewOrchestrator constructs an orchestrator over the registry and environment.
func NewOrchestrator(registry *Registry, env *Env) *Orchestrator {
	return &Orchestrator{
		mu:       sync.Mutex{},
		registry: registry,
		env:      env,
		applied:  make(map[string]bool),
	}
}

// Apply runs every registered patch of the phase in registration order and
// reports per-patch outcomes. It never returns an error and never panics.
func (o *Orchestrator) Apply(phase Phase) []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	runID := uuid.NewString()
	patches := o.registry.ForPhase(phase)
	outcomes := make([]Outcome, 0, len(patches))

	for _, p := range patches {
		outcome := o.attempt(runID, p)
		outcomes = append(outcomes, outcome)
		o.record(outcome)
	}
	return outcomes
}

func (o *Orchestrator) attempt(runID string, p Patch) Outcome {
	outcome := Outcome{RunID: runID, Patch: p.Name, Phase: p.Phase, State: StateSkipped, Reason: "", Err: nil}

	if o.applied[p.Name] {
		outcome.Reason = "already applied"
		return outcome
	}

	if p.When != nil {
		applicable, err := o.guardPredicate(p)
		if err != nil {
			outcome.State = StateFailed
			outcome.Reason = "predicate panicked"
			outcome.Err = err
			return outcome
		}
		if !applicable {
			outcome.Reason = "not applicable"
			return outcome
		}
	}

	if err := o.guardAction(p); err != nil {
		outcome.State = StateFailed
		outcome.Reason = "action failed"
		outcome.Err = err
		return outcome
	}

	o.applied[p.Name] = true
	outcome.State = StateApplied
	return outcome
}

func (o *Orchestrator) guardPredicate(p Patch) (applicable bool, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		applicable = p.When(o.env)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return false, fmt.Errorf("patch %q predicate: %w", p.Name, recovered.AsError())
	}
	return applicable, nil
}

func (o *Orchestrator) guardAction(p Patch) (err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		err = p.Apply(o.env)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return fmt.Errorf("patch %q action: %w", p.Name, recovered.AsError())
	}
	return err
}

func (o *Orchestrator) record(outcome Outcome) {
	labels := map[string]string{
		"patch": outcome.Patch,
		"phase": string(outcome.Phase),
		"state": string(outcome.State),
	}
	observability.Telemetry().IncCounter(observability.OutcomeCounter, 1, labels)

	fields := []observability.Field{
		observability.String("run_id", outcome.RunID),
		observability.String("patch", outcome.Patch),
		observability.String("phase", string(outcome.Phase)),
		observability.String("reason", outcome.Reason),
	}
	switch outcome.State {
	case StateApplied:
		observability.Log().Info("patch applied", fields...)
	case StateFailed:
		observability.Log().Error("patch failed", append(fields, observability.Err(outcome.Err))...)
	default:
		observability.Log().Debug("patch skipped", fields...)
	}
}
