package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/dispatcher"
	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/application/service"
	"github.com/garyjia/kvdph/internal/ledgerimport"
	"github.com/garyjia/kvdph/internal/observability/metrics"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and closed in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	database     *DatabaseBundle
	repositories *RepositoryBundle
	artifacts    port.ArtifactStore
	metrics      *metrics.Metrics
	events       *dispatcher.Dispatcher
	statements   service.StatementService
	importer     *ledgerimport.Importer

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes:
// 1. Database and repositories
// 2. Artifact storage, metrics and the event dispatcher
// 3. Statement service and ledger importer
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db
	c.repositories = ProvideRepositories(db.TransactionMgr, c.logger)
	c.logger.Info("Database initialized", zap.String("driver", db.Conn.Driver()))

	c.artifacts = ProvideArtifactStore(&c.config.Statement, c.logger)
	c.metrics = metrics.New()
	c.events = ProvideDispatcher(c.repositories, c.logger)

	c.statements = ProvideStatementService(
		&c.config.Statement,
		db.TransactionMgr,
		c.repositories,
		c.artifacts,
		c.events,
		c.metrics,
		c.logger,
	)
	c.importer = ledgerimport.NewImporter(c.repositories.Company, c.repositories.Ledger, db.TransactionMgr, c.logger)
	c.logger.Info("Statement service initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close drains the event dispatcher and releases the database connection.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.closed.Store(true)
	c.ready.Store(false)

	if c.events != nil {
		if err := c.events.Close(); err != nil {
			c.logger.Warn("Failed to close dispatcher", zap.Error(err))
		}
	}

	if c.database != nil {
		if err := c.database.Conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			return fmt.Errorf("close database: %w", err)
		}
	}

	c.logger.Info("Container closed")
	return nil
}

// Ready reports whether Start completed.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.database == nil:
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
	default:
		if err := c.database.Conn.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: err.Error()}
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	if c.statements != nil {
		status.Components["statements"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["statements"] = ComponentHealth{Healthy: false, Message: "not initialized"}
	}

	for _, component := range status.Components {
		if !component.Healthy {
			status.Overall = false
		}
	}
	return status
}

// Config returns the container configuration.
func (c *Container) Config() *Config {
	return c.config
}

// Database returns the database bundle.
func (c *Container) Database() *DatabaseBundle {
	return c.database
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Statements returns the statement service.
func (c *Container) Statements() service.StatementService {
	return c.statements
}

// LedgerImporter returns the YAML ledger importer.
func (c *Container) LedgerImporter() *ledgerimport.Importer {
	return c.importer
}

// Events returns the statement event dispatcher.
func (c *Container) Events() *dispatcher.Dispatcher {
	return c.events
}

// Metrics returns the metrics registry.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
