package observability

import "sync"

// Metrics provides counters, gauges, and histogram recording primitives.
type Metrics interface {
	IncCounter(name string, value float64, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

var defaultMetrics Metrics = noopMetrics{}

// SetMetrics overrides the global metrics implementation used by the compat layer.
func SetMetrics(metrics Metrics) {
	if metrics == nil {
		defaultMetrics = noopMetrics{}
		return
	}
	defaultMetrics = metrics
}

// Telemetry returns the current global metrics collector.
func Telemetry() Metrics {
	return defaultMetrics
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, float64, map[string]string)       {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (noopMetrics) SetGauge(string, float64, map[string]string)         {}

// PatchCounts aggregates outcome totals for a single patch.
type PatchCounts struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// PatchMetricsSnapshot captures per-patch outcome counters at a point in time.
type PatchMetricsSnapshot struct {
	Patches map[string]PatchCounts `json:"patches"`
}

// PatchMetrics accumulates patch outcome counters in-memory for periodic export.
// It implements Metrics so it can be installed via SetMetrics; only the
// compat_patch_outcomes counter contributes to the per-patch snapshot.
type PatchMetrics struct {
	mu      sync.Mutex
	patches map[string]PatchCounts
}

// NewPatchMetrics constructs a metrics accumulator with empty counters.
func NewPatchMetrics() *PatchMetrics {
	m := new(PatchMetrics)
	m.patches = make(map[string]PatchCounts)
	return m
}

// IncCounter records a counter increment; patch outcome counters are tracked per patch.
func (m *PatchMetrics) IncCounter(name string, value float64, labels map[string]string) {
	if name != OutcomeCounter {
		return
	}
	patch := labels["patch"]
	if patch == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := m.patches[patch]
	switch labels["state"] {
	case "applied":
		counts.Applied += int(value)
	case "skipped":
		counts.Skipped += int(value)
	case "failed":
		counts.Failed += int(value)
	}
	m.patches[patch] = counts
}

// ObserveHistogram is accepted and discarded; the accumulator tracks counters only.
func (m *PatchMetrics) ObserveHistogram(string, float64, map[string]string) {}

// SetGauge is accepted and discarded; the accumulator tracks counters only.
func (m *PatchMetrics) SetGauge(string, float64, map[string]string) {}

// Snapshot copies the current patch outcome counters for reporting.
func (m *PatchMetrics) Snapshot() PatchMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := PatchMetricsSnapshot{Patches: make(map[string]PatchCounts, len(m.patches))}
	for name, counts := range m.patches {
		out.Patches[name] = counts
	}
	return out
}

// OutcomeCounter names the counter tracking orchestrator patch outcomes.
const OutcomeCounter = "compat_patch_outcomes"
