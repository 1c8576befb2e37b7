package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/dispatcher"
	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/application/service"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/repository"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/kvdph/internal/infrastructure/storage"
	"github.com/garyjia/kvdph/internal/observability/metrics"
	"github.com/garyjia/kvdph/internal/statement"
	"github.com/garyjia/kvdph/migrations"
	"github.com/garyjia/kvdph/pkg/database"
	"github.com/garyjia/kvdph/pkg/utils"
)

var (
	_ service.Logger    = (*utils.KeyValueLogger)(nil)
	_ dispatcher.Logger = (*utils.KeyValueLogger)(nil)
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlstore.DB
}

// RepositoryBundle groups all repositories.
type RepositoryBundle struct {
	Statement  port.StatementRepository
	ReportLine port.ReportLineRepository
	Company    port.CompanyRepository
	Note       port.NoteRepository
	Ledger     *repository.LedgerRepository
}

// ProvideDatabase opens the configured database and, when enabled,
// applies the embedded migrations of its dialect.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(conn, logger); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlstore.NewDB(conn.DB, sqlstore.DialectFor(conn.Driver()), logger),
	}, nil
}

// Migrate applies pending migrations for the connection's driver.
func Migrate(conn *database.DB, logger *zap.Logger) error {
	migrator := database.NewMigrator(conn, logger)
	if err := migrator.RunMigrations(migrations.FS, migrations.Dir(conn.Driver())); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ProvideRepositories creates all SQL repositories.
func ProvideRepositories(db *sqlstore.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Statement:  repository.NewStatementRepository(db, logger),
		ReportLine: repository.NewReportLineRepository(db, logger),
		Company:    repository.NewCompanyRepository(db, logger),
		Note:       repository.NewNoteRepository(db, logger),
		Ledger:     repository.NewLedgerRepository(db, logger),
	}
}

// ProvideArtifactStore returns nil when no output directory is configured.
func ProvideArtifactStore(cfg *StatementConfig, logger *zap.Logger) port.ArtifactStore {
	if cfg.OutputDir == "" {
		return nil
	}
	return storage.NewLocalArtifactStore(cfg.OutputDir, logger)
}

// ProvideAggregator creates the aggregator reading from the ledger.
func ProvideAggregator(cfg *StatementConfig, ledger statement.DocumentSource, logger *zap.Logger) *statement.Aggregator {
	opts := []statement.Option{statement.WithDomesticPrefix(cfg.DomesticPrefix)}
	if cfg.TraceDecisions {
		opts = append(opts, statement.WithObserver(statement.NewLogObserver(logger)))
	}
	return statement.NewAggregator(ledger, opts...)
}

// ProvideDispatcher creates the statement event dispatcher with the chatter
// note recorder subscribed to every event type.
func ProvideDispatcher(repos *RepositoryBundle, logger *zap.Logger) *dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKeyValueLogger(logger)))
	d.Subscribe("notes", service.NewNoteRecorder(repos.Note).Handle)
	return d
}

// ProvideStatementService assembles the statement service.
func ProvideStatementService(
	cfg *StatementConfig,
	db *sqlstore.DB,
	repos *RepositoryBundle,
	artifacts port.ArtifactStore,
	events service.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) service.StatementService {
	return service.NewStatementService(service.StatementDeps{
		Statements: repos.Statement,
		Lines:      repos.ReportLine,
		Companies:  repos.Company,
		NoteReader: repos.Note,
		Ledger:     repos.Ledger,
		Aggregator: ProvideAggregator(cfg, repos.Ledger, logger),
		TxManager:  db,
		Artifacts:  artifacts,
		Events:     events,
		Metrics:    m,
		Logger:     utils.NewKeyValueLogger(logger),
	}, service.StatementOptions{
		DomesticPrefix: cfg.DomesticPrefix,
		XMLNamespace:   cfg.XMLNamespace,
	})
}
