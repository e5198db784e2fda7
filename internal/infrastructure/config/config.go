// Package config provides configuration structs and utilities for ttsplit.
package config

import (
	"errors"
	"fmt"

	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
)

// Config represents the root configuration.
type Config struct {
	Logging       LoggingConfig         `yaml:"logging"`
	Segmentation  SegmentationConfig    `yaml:"segmentation"`
	Models        []provider.ModelLimit `yaml:"models,omitempty"`
	Storage       StorageConfig         `yaml:"storage"`
	Observability ObservabilityConfig   `yaml:"observability"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SegmentationConfig holds defaults for segmentation requests.
type SegmentationConfig struct {
	DefaultModel      string `yaml:"default_model"`       // Model used when none is named
	ParagraphMaxChars int    `yaml:"paragraph_max_chars"` // Chunk size for paragraph-mapped output
	DefaultEncoding   string `yaml:"default_encoding"`    // Encoding for --unit tokens without a model
	Concurrency       int    `yaml:"concurrency"`         // Batch parallelism, 0 for GOMAXPROCS
}

// StorageConfig holds configuration for the run history store.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite file, empty for ~/.ttsplit/runs.db
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// Default configuration values.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	DefaultModel           = "openai-tts-1"
	DefaultEncoding        = "cl100k_base"
	DefaultConcurrency     = 0
	DefaultStorageEnabled  = true
	DefaultTracingEnabled  = false
	DefaultTracingExporter = "none"
	DefaultTracingRate     = 1.0
	DefaultTracingService  = "ttsplit"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Segmentation: SegmentationConfig{
			DefaultModel:      DefaultModel,
			ParagraphMaxChars: provider.DefaultParagraphMaxChars,
			DefaultEncoding:   DefaultEncoding,
			Concurrency:       DefaultConcurrency,
		},
		Storage: StorageConfig{
			Enabled: DefaultStorageEnabled,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporter,
				SampleRate:   DefaultTracingRate,
				ServiceName:  DefaultTracingService,
			},
		},
	}
}

// Limits returns the built-in model limits with the configured models applied over them.
func (c *Config) Limits() []provider.ModelLimit {
	return provider.Merge(provider.DefaultLimits(), c.Models...)
}

// Validate checks if the configuration is valid and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	registry, err := provider.NewLimitRegistry(c.Limits()...)
	if err != nil {
		errs = append(errs, fmt.Errorf("models: %w", err))
	}

	if err := c.Segmentation.Validate(registry); err != nil {
		errs = append(errs, fmt.Errorf("segmentation: %w", err))
	}

	if err := c.Observability.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: tracing: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}
	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	return errors.Join(errs...)
}

// Validate checks the segmentation defaults. registry may be nil when the model
// table itself is invalid, in which case the default model is not checked.
func (s *SegmentationConfig) Validate(registry *provider.LimitRegistry) error {
	var errs []error

	if s.ParagraphMaxChars <= 0 {
		errs = append(errs, errors.New("paragraph_max_chars must be positive"))
	}
	if s.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency must be non-negative"))
	}
	if s.DefaultEncoding == "" {
		errs = append(errs, errors.New("default_encoding is required"))
	}
	if s.DefaultModel != "" && registry != nil {
		if _, ok := registry.Lookup(s.DefaultModel); !ok {
			errs = append(errs, fmt.Errorf("default_model %q is not a known model", s.DefaultModel))
		}
	}

	return errors.Join(errs...)
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	return errors.Join(errs...)
}
