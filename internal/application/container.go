// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/jbctechsolutions/ttsplit/internal/application/ports"
	"github.com/jbctechsolutions/ttsplit/internal/application/segmentation"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/config"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/logging"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/storage"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	config  *config.Config
	verbose bool // Raise log level to info when true

	dbConn  *storage.Connection
	runRepo ports.RunStoragePort

	limits     *provider.LimitRegistry
	tokenizers *tokenizer.Registry

	logger *logging.Logger
	tracer *tracing.Tracer

	segmenter *segmentation.Service
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initRegistries(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize registries: %w", err)
	}

	if err := c.initStorage(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability sets up the logger and tracer.
func (c *Container) initObservability() error {
	logLevel := logging.ParseLevel(c.config.Logging.Level)
	if c.verbose && logLevel != logging.LevelDebug {
		logLevel = logging.LevelInfo
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logLevel
	logCfg.Format = logFormat
	c.logger = logging.New(logCfg)

	if !c.config.Observability.Tracing.Enabled {
		c.tracer = tracing.Noop()
		return nil
	}

	tracer, err := tracing.New(context.Background(), tracing.Config{
		Enabled:      true,
		ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
		OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
		ServiceName:  c.config.Observability.Tracing.ServiceName,
		Environment:  "production",
		SampleRate:   c.config.Observability.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	c.tracer = tracer
	return nil
}

// initRegistries builds the model limit table and the tokenizer cache.
func (c *Container) initRegistries() error {
	limits, err := provider.NewLimitRegistry(c.config.Limits()...)
	if err != nil {
		return err
	}
	c.limits = limits
	c.tokenizers = tokenizer.NewRegistry()
	return nil
}

// initStorage opens the run history database when enabled. A database that
// cannot be opened disables history rather than failing startup.
func (c *Container) initStorage() error {
	if !c.config.Storage.Enabled {
		return nil
	}

	conn, err := storage.NewConnection(c.config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := conn.Open(); err != nil {
		c.logger.Warn("run history disabled", "path", conn.Path(), "error", err.Error())
		return nil
	}

	db, err := conn.DB()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	c.dbConn = conn
	c.runRepo = storage.NewRunRepository(db)
	return nil
}

// initServices initializes application services.
func (c *Container) initServices() error {
	svc, err := segmentation.NewService(segmentation.ServiceConfig{
		Registry:    c.limits,
		Tokenizers:  c.tokenizers,
		Logger:      c.logger,
		Tracer:      c.tracer,
		Runs:        c.runRepo,
		Concurrency: c.config.Segmentation.Concurrency,
	})
	if err != nil {
		return err
	}
	c.segmenter = svc
	return nil
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	if c.tracer != nil {
		_ = c.tracer.Shutdown(context.Background())
	}
	if c.dbConn != nil {
		return c.dbConn.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the application tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Limits returns the model limit registry.
func (c *Container) Limits() *provider.LimitRegistry {
	return c.limits
}

// Tokenizers returns the tokenizer registry.
func (c *Container) Tokenizers() *tokenizer.Registry {
	return c.tokenizers
}

// RunRepository returns the run history store, or nil when history is disabled.
func (c *Container) RunRepository() ports.RunStoragePort {
	return c.runRepo
}

// Segmenter returns the segmentation service.
func (c *Container) Segmenter() *segmentation.Service {
	return c.segmenter
}
