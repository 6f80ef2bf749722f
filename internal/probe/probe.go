// Package probe inspects installed extension packages and reports coarse
// version identifiers. Probes are deliberately total: a missing package,
// a broken package, or a malformed version string all degrade to "feature
// unavailable" rather than an error, because a probe failure must never
// block the host from starting.
package probe

import (
	"math"
	"strings"

	"github.com/voxlane/compat/internal/modules"
)

// Dependency reports the discovered state of a named extension package.
type Dependency struct {
	Name       string
	Installed  bool
	HasVersion bool
	Major      int
}

// Prober resolves dependencies through the process module registry.
type Prober struct {
	registry *modules.Registry
}

// NewProber constructs a prober over the provided registry.
func NewProber(registry *modules.Registry) *Prober {
	return &Prober{registry: registry}
}

// Probe imports the named package and reads its version export. Import
// failures of any kind report an uninstalled dependency. Results are not
// cached: probes are cheap and applicability predicates re-probe on every
// orchestrator run.
func (p *Prober) Probe(name string) Dependency {
	dep := Dependency{Name: strings.TrimSpace(name), Installed: false, HasVersion: false, Major: 0}
	if p == nil || p.registry == nil {
		return dep
	}
	module, err := p.registry.Import(name)
	if err != nil {
		return dep
	}
	dep.Installed = true
	version := strings.TrimSpace(module.Version)
	if version == "" {
		return dep
	}
	dep.HasVersion = true
	dep.Major = ExtractMajor(version)
	return dep
}

// ExtractMajor parses the major version from a version string: the leading
// run of digits of the first dot-separated token. Empty or all-non-digit
// tokens yield 0; digit runs too long for int saturate at math.MaxInt so the
// result stays non-negative. Third-party packages use inconsistent version
// conventions (pre-release suffixes, date-based versions, local build
// metadata), so this never fails.
func ExtractMajor(version string) int {
	token, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	major := 0
	seen := false
	for _, r := range token {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		digit := int(r - '0')
		if major > (math.MaxInt-digit)/10 {
			major = math.MaxInt
			break
		}
		major = major*10 + digit
	}
	if !seen {
		return 0
	}
	return major
}
