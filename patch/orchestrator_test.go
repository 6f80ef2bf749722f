package patch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxlane/compat/internal/modules"
	"github.com/voxlane/compat/internal/observability"
)

func newOrchestrator(t *testing.T, patches ...Patch) (*Orchestrator, *Registry) {
	t.Helper()
	reg := NewRegistry()
	for _, p := range patches {
		require.NoError(t, reg.Register(p))
	}
	env := NewEnv(modules.NewRegistry())
	return NewOrchestrator(reg, env), reg
}

func TestApplyRunsPatchesInRegistrationOrder(t *testing.T) {
	var order []string
	mk := func(name string) Patch {
		return Patch{
			Name:  name,
			Phase: PhasePreImport,
			When:  func(*Env) bool { return true },
			Apply: func(*Env) error { order = append(order, name); return nil },
		}
	}
	orch, _ := newOrchestrator(t, mk("first"), mk("second"), mk("third"))

	outcomes := orch.Apply(PhasePreImport)
	require.Equal(t, []string{"first", "second", "third"}, order)
	require.Len(t, outcomes, 3)
	for _, outcome := range outcomes {
		require.Equal(t, StateApplied, outcome.State)
		require.NotEmpty(t, outcome.RunID)
	}
	require.Equal(t, outcomes[0].RunID, outcomes[2].RunID)
}

func TestApplyFiltersByPhase(t *testing.T) {
	pre, post := 0, 0
	orch, _ := newOrchestrator(t,
		Patch{Name: "pre", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { pre++; return nil }},
		Patch{Name: "post", Phase: PhasePostImport, When: nil, Apply: func(*Env) error { post++; return nil }},
	)

	outcomes := orch.Apply(PhasePreImport)
	require.Len(t, outcomes, 1)
	require.Equal(t, 1, pre)
	require.Equal(t, 0, post)

	outcomes = orch.Apply(PhasePostImport)
	require.Len(t, outcomes, 1)
	require.Equal(t, 1, post)
}

func TestApplyIsIdempotent(t *testing.T) {
	runs := 0
	orch, _ := newOrchestrator(t, Patch{
		Name:  "once",
		Phase: PhasePreImport,
		When:  func(*Env) bool { return true },
		Apply: func(*Env) error { runs++; return nil },
	})

	first := orch.Apply(PhasePreImport)
	second := orch.Apply(PhasePreImport)
	require.Equal(t, 1, runs)
	require.Equal(t, StateApplied, first[0].State)
	require.Equal(t, StateSkipped, second[0].State)
	require.Equal(t, "already applied", second[0].Reason)
}

func TestPredicateFalseSkips(t *testing.T) {
	ran := false
	orch, _ := newOrchestrator(t, Patch{
		Name:  "gated",
		Phase: PhasePreImport,
		When:  func(*Env) bool { return false },
		Apply: func(*Env) error { ran = true; return nil },
	})

	outcomes := orch.Apply(PhasePreImport)
	require.False(t, ran)
	require.Equal(t, StateSkipped, outcomes[0].State)
	require.Equal(t, "not applicable", outcomes[0].Reason)
}

func TestActionErrorIsAbsorbed(t *testing.T) {
	boom := errors.New("boom")
	orch, _ := newOrchestrator(t,
		Patch{Name: "fails", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return boom }},
		Patch{Name: "still-runs", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return nil }},
	)

	outcomes := orch.Apply(PhasePreImport)
	require.Equal(t, StateFailed, outcomes[0].State)
	require.ErrorIs(t, outcomes[0].Err, boom)
	require.Equal(t, StateApplied, outcomes[1].State)
}

func TestActionPanicIsAbsorbed(t *testing.T) {
	orch, _ := newOrchestrator(t,
		Patch{Name: "panics", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { panic("kaboom") }},
		Patch{Name: "survivor", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return nil }},
	)

	var outcomes []Outcome
	require.NotPanics(t, func() {
		outcomes = orch.Apply(PhasePreImport)
	})
	require.Equal(t, StateFailed, outcomes[0].State)
	require.Contains(t, outcomes[0].Err.Error(), "kaboom")
	require.Equal(t, StateApplied, outcomes[1].State)
}

func TestPredicatePanicIsAbsorbed(t *testing.T) {
	orch, _ := newOrchestrator(t, Patch{
		Name:  "bad-predicate",
		Phase: PhasePreImport,
		When:  func(*Env) bool { panic("predicate blew up") },
		Apply: func(*Env) error { return nil },
	})

	outcomes := orch.Apply(PhasePreImport)
	require.Equal(t, StateFailed, outcomes[0].State)
	require.Equal(t, "predicate panicked", outcomes[0].Reason)
}

func TestFailedPatchRetriesOnNextRun(t *testing.T) {
	attempts := 0
	orch, _ := newOrchestrator(t, Patch{
		Name:  "flaky",
		Phase: PhasePreImport,
		When:  nil,
		Apply: func(*Env) error {
			attempts++
			if attempts == 1 {
				return errors.New("transient")
			}
			return nil
		},
	})

	first := orch.Apply(PhasePreImport)
	require.Equal(t, StateFailed, first[0].State)

	second := orch.Apply(PhasePreImport)
	require.Equal(t, StateApplied, second[0].State)

	third := orch.Apply(PhasePreImport)
	require.Equal(t, StateSkipped, third[0].State)
	require.Equal(t, 2, attempts)
}

func TestOutcomesFeedMetrics(t *testing.T) {
	metrics := observability.NewPatchMetrics()
	observability.SetMetrics(metrics)
	defer observability.SetMetrics(nil)

	orch, _ := newOrchestrator(t,
		Patch{Name: "ok", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return nil }},
		Patch{Name: "bad", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return errors.New("no") }},
	)
	orch.Apply(PhasePreImport)

	snapshot := metrics.Snapshot()
	require.Equal(t, 1, snapshot.Patches["ok"].Applied)
	require.Equal(t, 1, snapshot.Patches["bad"].Failed)
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register(Patch{Name: "", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return nil }}))
	require.Error(t, reg.Register(Patch{Name: "x", Phase: "mid_import", When: nil, Apply: func(*Env) error { return nil }}))
	require.Error(t, reg.Register(Patch{Name: "x", Phase: PhasePreImport, When: nil, Apply: nil}))

	ok := Patch{Name: "x", Phase: PhasePreImport, When: nil, Apply: func(*Env) error { return nil }}
	require.NoError(t, reg.Register(ok))
	require.Error(t, reg.Register(ok))
	require.Equal(t, 1, reg.Len())
}
