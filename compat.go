// Package compat detects the installed versions and shapes of the host's
// extension packages at process startup and conditionally rewrites parts of
// their public surface (missing submodules, incompatible data-model
// definitions, loader functions with unsafe new defaults) so the rest of the
// host uses a single, version-independent API.
//
// The host calls ApplyPreImportPatches before its first import of the
// protected packages and ApplyPostImportPatches after that import completes.
// Both are total: internal patch failures are absorbed, logged, and reported
// as outcomes, never as errors or panics. When the host spawns worker
// processes, each worker runs its own full, independent patch pass; the
// operations are idempotent and side-effect-local to each process.
package compat

import (
	"sync"

	"github.com/voxlane/compat/config"
	"github.com/voxlane/compat/internal/modules"
	"github.com/voxlane/compat/internal/observability"
	"github.com/voxlane/compat/internal/patches"
	"github.com/voxlane/compat/patch"
)

// Layer is a configured compat subsystem: a module registry wired to the
// host's extension root plus an orchestrator over the built-in patches.
type Layer struct {
	mods *modules.Registry
	orch *patch.Orchestrator
}

// New builds a compat layer for the provided settings.
func New(cfg config.Settings) (*Layer, error) {
	source, err := modules.NewScriptDir(cfg.ExtensionRoot)
	if err != nil {
		return nil, err
	}
	mods := modules.NewRegistry(source)
	registry := patch.NewRegistry()
	if err := patches.RegisterAll(registry, mods); err != nil {
		return nil, err
	}
	return &Layer{
		mods: mods,
		orch: patch.NewOrchestrator(registry, patch.NewEnv(mods)),
	}, nil
}

// Modules exposes the process module registry the host imports through.
func (l *Layer) Modules() *modules.Registry {
	return l.mods
}

// ApplyPreImportPatches runs every PRE_IMPORT patch and reports outcomes.
func (l *Layer) ApplyPreImportPatches() []patch.Outcome {
	return l.orch.Apply(patch.PhasePreImport)
}

// ApplyPostImportPatches runs every POST_IMPORT patch and reports outcomes.
func (l *Layer) ApplyPostImportPatches() []patch.Outcome {
	return l.orch.Apply(patch.PhasePostImport)
}

var (
	defaultOnce  sync.Once
	defaultLayer *Layer
	defaultErr   error
)

func defaultInstance() (*Layer, error) {
	defaultOnce.Do(func() {
		defaultLayer, defaultErr = New(config.FromEnv())
		if defaultErr != nil {
			observability.Log().Error("compat layer setup failed", observability.Err(defaultErr))
		}
	})
	return defaultLayer, defaultErr
}

// ApplyPreImportPatches runs the default layer's PRE_IMPORT patches. The
// default layer is built lazily from environment settings; a setup failure
// degrades to an empty outcome list so startup is never blocked.
func ApplyPreImportPatches() []patch.Outcome {
	layer, err := defaultInstance()
	if err != nil {
		return nil
	}
	return layer.ApplyPreImportPatches()
}

// ApplyPostImportPatches runs the default layer's POST_IMPORT patches.
func ApplyPostImportPatches() []patch.Outcome {
	layer, err := defaultInstance()
	if err != nil {
		return nil
	}
	return layer.ApplyPostImportPatches()
}
