// Package modules implements the process-wide module registry the host's
// extension import machinery consults. Extension packages resolve to Module
// values published under slash-separated import names; the compat layer
// rewrites entries in this table without ever displacing a module that
// already loaded successfully.
package modules

import (
	"sort"
	"strings"
	"sync"
)

// Origin describes how a module entered the registry.
type Origin string

const (
	// OriginNative marks modules built from Go exports registered by the host.
	OriginNative Origin = "native"
	// OriginScript marks modules executed from extension scripts on disk.
	OriginScript Origin = "script"
	// OriginInjected marks fallback modules published by the compat layer.
	OriginInjected Origin = "injected"
)

// Module is a loaded extension module: a named export table plus metadata.
type Module struct {
	Name    string
	Origin  Origin
	Version string

	mu      sync.RWMutex
	exports map[string]any
}

// NewNative constructs a module from Go-built exports.
func NewNative(name, version string, exports map[string]any) *Module {
	table := make(map[string]any, len(exports))
	for k, v := range exports {
		table[k] = v
	}
	return &Module{
		Name:    strings.TrimSpace(name),
		Origin:  OriginNative,
		Version: strings.TrimSpace(version),
		exports: table,
	}
}

// Export returns the value bound to the named symbol.
func (m *Module) Export(symbol string) (any, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.exports[symbol]
	return value, ok
}

// HasExport reports whether the named symbol is bound.
func (m *Module) HasExport(symbol string) bool {
	_, ok := m.Export(symbol)
	return ok
}

// SetExport rebinds the named symbol. The export table is the canonical
// namespace: consumers resolving the module after a rebind observe the new
// binding.
func (m *Module) SetExport(symbol string, value any) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[symbol] = value
}

// ExportNames returns the bound symbol names in sorted order.
func (m *Module) ExportNames() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
