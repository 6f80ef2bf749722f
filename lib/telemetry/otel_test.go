package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxlane/compat/config"
)

func TestParseEndpoint(t *testing.T) {
	host, insecure, err := parseEndpoint("https://example.com:4318")
	require.NoError(t, err)
	require.Equal(t, "example.com:4318", host)
	require.False(t, insecure)

	host, insecure, err = parseEndpoint("http://localhost:4318")
	require.NoError(t, err)
	require.Equal(t, "localhost:4318", host)
	require.True(t, insecure)
}

func TestInitNoEndpointUsesNoop(t *testing.T) {
	providers, shutdown, err := Init(context.Background(), config.TelemetryConfig{OTLPEndpoint: "", ServiceName: ""})
	require.NoError(t, err)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitInvalidEndpoint(t *testing.T) {
	_, _, err := Init(context.Background(), config.TelemetryConfig{OTLPEndpoint: "://bad", ServiceName: ""})
	require.Error(t, err)
}

func TestInitWithEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	providers, shutdown, err := Init(context.Background(), config.TelemetryConfig{OTLPEndpoint: srv.URL, ServiceName: "compat"})
	require.NoError(t, err)
	require.NotNil(t, providers.MeterProvider)
	require.NoError(t, shutdown(context.Background()))
}

func TestBridgeRecordsWithoutError(t *testing.T) {
	providers, shutdown, err := Init(context.Background(), config.TelemetryConfig{OTLPEndpoint: "", ServiceName: ""})
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	bridge := NewBridge(providers.MeterProvider)
	labels := map[string]string{"patch": "p", "state": "applied"}
	require.NotPanics(t, func() {
		bridge.IncCounter("compat_patch_outcomes", 1, labels)
		bridge.IncCounter("compat_patch_outcomes", 1, labels)
		bridge.SetGauge("compat_patches_registered", 3, nil)
		bridge.ObserveHistogram("compat_phase_duration_ms", 1.5, nil)
	})
}
