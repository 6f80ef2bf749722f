// Command compatcheck runs the compat patch phases against an extension root
// and reports per-patch outcomes, for diagnosing a host installation without
// starting the host itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/voxlane/compat"
	"github.com/voxlane/compat/config"
	"github.com/voxlane/compat/internal/observability"
	"github.com/voxlane/compat/lib/telemetry"
	"github.com/voxlane/compat/patch"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type outcomeReport struct {
	RunID  string      `json:"run_id"`
	Patch  string      `json:"patch"`
	Phase  patch.Phase `json:"phase"`
	State  patch.State `json:"state"`
	Reason string      `json:"reason,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type report struct {
	ExtensionRoot string                             `json:"extension_root"`
	PreImport     []outcomeReport                    `json:"pre_import"`
	PostImport    []outcomeReport                    `json:"post_import"`
	Counters      observability.PatchMetricsSnapshot `json:"counters"`
	Modules       []string                           `json:"loaded_modules"`
}

func run() error {
	cfg := config.FromEnv()
	var (
		root    = flag.String("extensions", cfg.ExtensionRoot, "Directory containing installed extension packages")
		otlp    = flag.String("otlp-endpoint", cfg.Telemetry.OTLPEndpoint, "OTLP metric endpoint (empty disables export)")
		verbose = flag.Bool("verbose", false, "Log patch outcomes to stderr")
	)
	flag.Parse()

	if strings.TrimSpace(*root) == "" {
		return fmt.Errorf("-extensions flag is required")
	}
	cfg = config.Apply(cfg,
		config.WithExtensionRoot(*root),
		config.WithTelemetryEndpoint(*otlp),
	)

	providers, shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	metrics := observability.NewPatchMetrics()
	sinks := []observability.Metrics{metrics}
	if cfg.Telemetry.OTLPEndpoint != "" {
		sinks = append(sinks, telemetry.NewBridge(providers.MeterProvider))
	}
	observability.SetMetrics(teeMetrics{sinks: sinks})
	if *verbose {
		observability.SetLogger(newStderrLogger())
	}

	layer, err := compat.New(cfg)
	if err != nil {
		return fmt.Errorf("initialise compat layer: %w", err)
	}

	pre := layer.ApplyPreImportPatches()
	post := layer.ApplyPostImportPatches()

	out := report{
		ExtensionRoot: cfg.ExtensionRoot,
		PreImport:     toReports(pre),
		PostImport:    toReports(post),
		Counters:      metrics.Snapshot(),
		Modules:       layer.Modules().Loaded(),
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(encoded))

	// Patch failures are diagnostics, not process failures: the orchestrator
	// is total and the host would have continued unpatched.
	return nil
}

func toReports(outcomes []patch.Outcome) []outcomeReport {
	out := make([]outcomeReport, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := outcomeReport{
			RunID:  outcome.RunID,
			Patch:  outcome.Patch,
			Phase:  outcome.Phase,
			State:  outcome.State,
			Reason: outcome.Reason,
			Error:  "",
		}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}

type teeMetrics struct {
	sinks []observability.Metrics
}

func (t teeMetrics) IncCounter(name string, value float64, labels map[string]string) {
	for _, sink := range t.sinks {
		sink.IncCounter(name, value, labels)
	}
}

func (t teeMetrics) ObserveHistogram(name string, value float64, labels map[string]string) {
	for _, sink := range t.sinks {
		sink.ObserveHistogram(name, value, labels)
	}
}

func (t teeMetrics) SetGauge(name string, value float64, labels map[string]string) {
	for _, sink := range t.sinks {
		sink.SetGauge(name, value, labels)
	}
}

type stderrLogger struct {
	logger *log.Logger
}

func newStderrLogger() *stderrLogger {
	return &stderrLogger{logger: log.New(os.Stderr, "compatcheck ", log.LstdFlags)}
}

func (l *stderrLogger) Debug(msg string, fields ...observability.Field) { l.print("DEBUG", msg, fields) }
func (l *stderrLogger) Info(msg string, fields ...observability.Field)  { l.print("INFO", msg, fields) }
func (l *stderrLogger) Error(msg string, fields ...observability.Field) { l.print("ERROR", msg, fields) }

func (l *stderrLogger) print(level, msg string, fields []observability.Field) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for _, field := range fields {
		fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
	}
	l.logger.Println(b.String())
}
