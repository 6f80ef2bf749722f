// Package telemetry configures OpenTelemetry metric export for the compat layer.
package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	apimetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/voxlane/compat/config"
	"github.com/voxlane/compat/internal/observability"
)

// Providers groups telemetry provider handles.
type Providers struct {
	MeterProvider apimetric.MeterProvider
}

// Init configures the OpenTelemetry metric exporter based on the provided
// configuration. An empty endpoint yields noop providers, matching the
// compat layer's default of no external telemetry.
func Init(ctx context.Context, cfg config.TelemetryConfig) (Providers, func(context.Context) error, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	service := strings.TrimSpace(cfg.ServiceName)
	if service == "" {
		service = "voxlane-compat"
	}

	if endpoint == "" {
		noopProviders := Providers{MeterProvider: noop.NewMeterProvider()}
		otel.SetMeterProvider(noopProviders.MeterProvider)
		return noopProviders, func(context.Context) error { return nil }, nil
	}

	host, insecure, err := parseEndpoint(endpoint)
	if err != nil {
		return Providers{}, nil, err
	}

	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(host)}
	if insecure {
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return Providers{}, nil, fmt.Errorf("create metric exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return Providers{}, nil, fmt.Errorf("create resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)

	providers := Providers{MeterProvider: mp}
	return providers, mp.Shutdown, nil
}

func parseEndpoint(raw string) (string, bool, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse otlp endpoint: %w", err)
	}
	host := parsed.Host
	if host == "" {
		host = raw
	}
	insecure := parsed.Scheme != "https"
	return host, insecure, nil
}

// Bridge adapts the compat layer's Metrics interface onto OpenTelemetry
// instruments. Instruments are created lazily per metric name and cached.
type Bridge struct {
	meter apimetric.Meter

	mu         sync.Mutex
	counters   map[string]apimetric.Float64Counter
	gauges     map[string]apimetric.Float64Gauge
	histograms map[string]apimetric.Float64Histogram
}

// NewBridge builds a Metrics bridge over the provider's meter.
func NewBridge(provider apimetric.MeterProvider) *Bridge {
	return &Bridge{
		meter:      provider.Meter("github.com/voxlane/compat"),
		mu:         sync.Mutex{},
		counters:   make(map[string]apimetric.Float64Counter),
		gauges:     make(map[string]apimetric.Float64Gauge),
		histograms: make(map[string]apimetric.Float64Histogram),
	}
}

var _ observability.Metrics = (*Bridge)(nil)

// IncCounter adds to the named counter.
func (b *Bridge) IncCounter(name string, value float64, labels map[string]string) {
	b.mu.Lock()
	counter, ok := b.counters[name]
	if !ok {
		created, err := b.meter.Float64Counter(name)
		if err != nil {
			b.mu.Unlock()
			return
		}
		counter = created
		b.counters[name] = counter
	}
	b.mu.Unlock()
	counter.Add(context.Background(), value, apimetric.WithAttributes(toAttributes(labels)...))
}

// SetGauge records the named gauge value.
func (b *Bridge) SetGauge(name string, value float64, labels map[string]string) {
	b.mu.Lock()
	gauge, ok := b.gauges[name]
	if !ok {
		created, err := b.meter.Float64Gauge(name)
		if err != nil {
			b.mu.Unlock()
			return
		}
		gauge = created
		b.gauges[name] = gauge
	}
	b.mu.Unlock()
	gauge.Record(context.Background(), value, apimetric.WithAttributes(toAttributes(labels)...))
}

// ObserveHistogram records a sample in the named histogram.
func (b *Bridge) ObserveHistogram(name string, value float64, labels map[string]string) {
	b.mu.Lock()
	histogram, ok := b.histograms[name]
	if !ok {
		created, err := b.meter.Float64Histogram(name)
		if err != nil {
			b.mu.Unlock()
			return
		}
		histogram = created
		b.histograms[name] = histogram
	}
	b.mu.Unlock()
	histogram.Record(context.Background(), value, apimetric.WithAttributes(toAttributes(labels)...))
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}
	return attrs
}
