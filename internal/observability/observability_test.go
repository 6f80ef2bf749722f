package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debugs int
	infos  int
	errors int
}

func (r *recordingLogger) Debug(string, ...Field) { r.debugs++ }
func (r *recordingLogger) Info(string, ...Field)  { r.infos++ }
func (r *recordingLogger) Error(string, ...Field) { r.errors++ }

func TestSetLoggerOverridesGlobal(t *testing.T) {
	recorder := new(recordingLogger)
	SetLogger(recorder)
	defer SetLogger(nil)

	Log().Debug("test")
	require.Equal(t, 1, recorder.debugs)

	SetLogger(nil)
	Log().Info("noop")
	require.Equal(t, 0, recorder.infos)
}

func TestErrFieldHandlesNil(t *testing.T) {
	field := Err(nil)
	require.Equal(t, "error", field.Key)
	require.Equal(t, "", field.Value)

	field = Err(errors.New("boom"))
	require.Equal(t, "boom", field.Value)
}

func TestSetMetricsOverridesGlobal(t *testing.T) {
	metrics := NewPatchMetrics()
	SetMetrics(metrics)
	defer SetMetrics(nil)

	Telemetry().IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p1", "state": "applied"})
	snapshot := metrics.Snapshot()
	require.Equal(t, 1, snapshot.Patches["p1"].Applied)
}

func TestPatchMetricsAccumulatesOutcomes(t *testing.T) {
	metrics := NewPatchMetrics()
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p1", "state": "applied"})
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p1", "state": "skipped"})
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p1", "state": "skipped"})
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p2", "state": "failed"})
	metrics.IncCounter("unrelated_counter", 1, map[string]string{"patch": "p3", "state": "applied"})
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"state": "applied"})

	snapshot := metrics.Snapshot()
	require.Equal(t, PatchCounts{Applied: 1, Skipped: 2, Failed: 0}, snapshot.Patches["p1"])
	require.Equal(t, PatchCounts{Applied: 0, Skipped: 0, Failed: 1}, snapshot.Patches["p2"])
	require.NotContains(t, snapshot.Patches, "p3")
	require.Len(t, snapshot.Patches, 2)
}

func TestSnapshotReturnsCopy(t *testing.T) {
	metrics := NewPatchMetrics()
	metrics.IncCounter(OutcomeCounter, 1, map[string]string{"patch": "p1", "state": "applied"})
	snapshot := metrics.Snapshot()
	snapshot.Patches["p1"] = PatchCounts{Applied: 99}
	require.Equal(t, 1, metrics.Snapshot().Patches["p1"].Applied)
}
