// Package patches wires the built-in compat patches into a patch registry.
package patches

import (
	"github.com/voxlane/compat/internal/inject"
	"github.com/voxlane/compat/internal/modules"
	"github.com/voxlane/compat/internal/replace"
	"github.com/voxlane/compat/internal/wrap"
	"github.com/voxlane/compat/patch"
)

// Import names and symbols of the protected extension packages.
const (
	// ModSerializing is the legacy veldt-client submodule newer releases removed.
	ModSerializing = "veldt-client/serializing"
	// DepStrictform is the validation library whose v2 rejects undeclared fields.
	DepStrictform = "strictform"
	// ModDataclasses and ModQueueing are the namespaces binding PredictRequest.
	ModDataclasses = "veldt/dataclasses"
	ModQueueing    = "veldt/queueing"
	// SymbolPredictRequest is the data-model definition both namespaces bind.
	SymbolPredictRequest = "PredictRequest"
	// DepTensorlane is the model loader package; SymbolLoad its loader export.
	DepTensorlane = "tensorlane"
	SymbolLoad    = "load"
	// OptWeightsOnly is the load option whose default flipped upstream.
	OptWeightsOnly = "weightsOnly"
)

// Built-in patch names.
const (
	PatchEnsureSerializing    = "ensure-serializing-module"
	PatchPermissivePredict    = "permissive-predict-request"
	PatchTensorlaneLoadSafety = "tensorlane-load-safe-default"
)

// RegisterAll installs every built-in patch into the provided registry.
// Patches are registered in the order they must execute within each phase.
func RegisterAll(reg *patch.Registry, mods *modules.Registry) error {
	injector, err := inject.NewInjector(mods)
	if err != nil {
		return err
	}

	serializing := patch.Patch{
		Name:  PatchEnsureSerializing,
		Phase: patch.PhasePreImport,
		When: func(env *patch.Env) bool {
			return !env.Prober.Probe(ModSerializing).Installed
		},
		Apply: func(env *patch.Env) error {
			return injector.Ensure(ModSerializing)
		},
	}

	replacer := &replace.Replacer{
		Source: replace.Target{Module: ModDataclasses, Symbol: SymbolPredictRequest},
		Targets: []replace.Target{
			{Module: ModDataclasses, Symbol: SymbolPredictRequest},
			{Module: ModQueueing, Symbol: SymbolPredictRequest},
		},
	}
	permissive := patch.Patch{
		Name:  PatchPermissivePredict,
		Phase: patch.PhasePostImport,
		When: func(env *patch.Env) bool {
			dep := env.Prober.Probe(DepStrictform)
			return dep.Installed && dep.HasVersion && dep.Major >= 2
		},
		Apply: func(env *patch.Env) error {
			return replacer.Run(env.Registry)
		},
	}

	loadSafety := patch.Patch{
		Name:  PatchTensorlaneLoadSafety,
		Phase: patch.PhasePostImport,
		When: func(env *patch.Env) bool {
			return env.Prober.Probe(DepTensorlane).Installed
		},
		Apply: func(env *patch.Env) error {
			return wrap.Install(env.Registry, DepTensorlane, SymbolLoad, OptWeightsOnly, false)
		},
	}

	for _, p := range []patch.Patch{serializing, permissive, loadSafety} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
