// Package config centralises runtime configuration helpers for the Voxlane compat layer.
package config

import (
	"os"
	"strings"
)

// Environment identifies the runtime environment where the host operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

const (
	defaultExtensionRoot = "extensions"
	defaultServiceName   = "voxlane-compat"
)

// TelemetryConfig controls metric export for the compat layer.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Settings contains the compat-layer configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment   Environment
	ExtensionRoot string
	Telemetry     TelemetryConfig
}

// Default returns the baseline settings used when no overrides are present.
func Default() Settings {
	return Settings{
		Environment:   EnvProd,
		ExtensionRoot: defaultExtensionRoot,
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "",
			ServiceName:  defaultServiceName,
		},
	}
}

// FromEnv builds settings from defaults plus environment variable overrides.
// The compat layer deliberately reads no configuration file: behaviour is a
// function of the process environment and what is importable at call time.
func FromEnv() Settings {
	cfg := Default()

	if env := strings.ToLower(strings.TrimSpace(os.Getenv("VOXLANE_ENV"))); env != "" {
		switch Environment(env) {
		case EnvDev, EnvStaging, EnvProd:
			cfg.Environment = Environment(env)
		}
	}
	if root := strings.TrimSpace(os.Getenv("VOXLANE_EXTENSION_ROOT")); root != "" {
		cfg.ExtensionRoot = root
	}
	if endpoint := strings.TrimSpace(os.Getenv("VOXLANE_OTLP_ENDPOINT")); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}
	if service := strings.TrimSpace(os.Getenv("VOXLANE_TELEMETRY_SERVICE")); service != "" {
		cfg.Telemetry.ServiceName = service
	}
	return cfg
}

// Option mutates a settings value during Apply.
type Option func(*Settings)

// WithEnvironment overrides the runtime environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		s.Environment = env
	}
}

// WithExtensionRoot overrides the directory containing installed extension packages.
func WithExtensionRoot(root string) Option {
	trimmed := strings.TrimSpace(root)
	return func(s *Settings) {
		if trimmed != "" {
			s.ExtensionRoot = trimmed
		}
	}
}

// WithTelemetryEndpoint overrides the OTLP metric endpoint.
func WithTelemetryEndpoint(endpoint string) Option {
	trimmed := strings.TrimSpace(endpoint)
	return func(s *Settings) {
		s.Telemetry.OTLPEndpoint = trimmed
	}
}

// Apply returns a copy of base with the provided options applied.
func Apply(base Settings, opts ...Option) Settings {
	out := base
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
