package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/domain/event"
	"github.com/garyjia/kvdph/internal/domain/workflow"
	"github.com/garyjia/kvdph/internal/export"
	"github.com/garyjia/kvdph/internal/observability/metrics"
	"github.com/garyjia/kvdph/internal/statement"
)

// ErrArtifactMissing is returned when a statement has no stored file of the requested format
var ErrArtifactMissing = errors.New("artifact not exported")

// CreateStatementInput identifies the company and month of a new statement
type CreateStatementInput struct {
	CompanyID string `json:"company_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
}

// StatementDetail is a statement with its stored lines
type StatementDetail struct {
	Statement *entity.Statement    `json:"statement"`
	Lines     []*entity.ReportLine `json:"lines"`
}

// ExportResult describes an export attempt. A status precondition failure
// is reported through Warning with Exported=false and no artifact.
type ExportResult struct {
	Exported  bool              `json:"exported"`
	Warning   error             `json:"-"`
	Artifact  *export.Artifact  `json:"-"`
	Statement *entity.Statement `json:"statement"`
}

// EventPublisher delivers statement lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// Aggregator computes the line set of a statement
type Aggregator interface {
	Generate(ctx context.Context, stmt *entity.Statement) (*statement.Result, error)
}

// Renderer turns a read model into an output file
type Renderer interface {
	Render(model *export.ReadModel) (*export.Artifact, error)
}

// StatementService manages the statement lifecycle
type StatementService interface {
	Create(ctx context.Context, input CreateStatementInput) (*entity.Statement, error)
	Get(ctx context.Context, id string) (*entity.Statement, error)
	GetWithLines(ctx context.Context, id string) (*StatementDetail, error)
	List(ctx context.Context, companyID string) ([]*entity.Statement, error)
	Generate(ctx context.Context, id string) (*StatementDetail, error)
	Confirm(ctx context.Context, id string) (*entity.Statement, error)
	ResetToDraft(ctx context.Context, id string) (*entity.Statement, error)
	ExportXML(ctx context.Context, id string) (*ExportResult, error)
	ExportXLSX(ctx context.Context, id string) (*ExportResult, error)
	Artifact(ctx context.Context, id string, format export.Format) (*export.Artifact, error)
	Notes(ctx context.Context, id string) ([]*entity.Note, error)
}

// StatementDeps are the collaborators of the statement service.
// Artifacts, Events and Metrics are optional.
type StatementDeps struct {
	Statements port.StatementRepository
	Lines      port.ReportLineRepository
	Companies  port.CompanyRepository
	NoteReader port.NoteRepository
	Ledger     port.LedgerReader
	Aggregator Aggregator
	TxManager  port.TransactionManager
	Artifacts  port.ArtifactStore
	Events     EventPublisher
	Metrics    *metrics.Metrics
	Logger     Logger
}

// StatementOptions are renderer settings
type StatementOptions struct {
	DomesticPrefix string
	XMLNamespace   string
}

type statementServiceImpl struct {
	deps      StatementDeps
	opts      StatementOptions
	renderers map[export.Format]Renderer
	newID     func() string
}

// NewStatementService creates a new StatementService
func NewStatementService(deps StatementDeps, opts StatementOptions) StatementService {
	if opts.DomesticPrefix == "" {
		opts.DomesticPrefix = entity.DefaultDomesticPrefix
	}
	return &statementServiceImpl{
		deps: deps,
		opts: opts,
		renderers: map[export.Format]Renderer{
			export.FormatXML:  export.NewXMLRenderer(),
			export.FormatXLSX: export.NewXLSXRenderer(),
		},
		newID: uuid.NewString,
	}
}

// Create opens a draft statement for a company and month
func (s *statementServiceImpl) Create(ctx context.Context, input CreateStatementInput) (*entity.Statement, error) {
	s.deps.Logger.Info("Creating statement", "company_id", input.CompanyID, "year", input.Year, "month", input.Month)

	company, err := s.deps.Companies.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}

	stmt, err := entity.NewStatement(s.newID(), company.ID, input.Year, input.Month)
	if err != nil {
		return nil, err
	}
	if company.Currency != "" {
		stmt.Currency = company.Currency
	}

	err = s.deps.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.deps.Statements.GetByPeriod(ctx, stmt.CompanyID, stmt.Year, stmt.Month)
		if err == nil {
			return fmt.Errorf("%w: %s %s", port.ErrDuplicateStatement, stmt.CompanyID, stmt.PeriodLabel())
		}
		if !errors.Is(err, port.ErrNotFound) {
			return err
		}

		ref, err := s.deps.Statements.NextReference(ctx, stmt.Year)
		if err != nil {
			return err
		}
		stmt.Reference = ref
		return s.deps.Statements.Create(ctx, stmt)
	})
	if err != nil {
		s.deps.Logger.Error("Failed to create statement", "error", err, "company_id", input.CompanyID)
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeStatementCreated, stmt))
	return stmt, nil
}

// Get returns a statement
func (s *statementServiceImpl) Get(ctx context.Context, id string) (*entity.Statement, error) {
	return s.deps.Statements.GetByID(ctx, id)
}

// GetWithLines returns a statement and its stored lines
func (s *statementServiceImpl) GetWithLines(ctx context.Context, id string) (*StatementDetail, error) {
	stmt, err := s.deps.Statements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.deps.Lines.ListByStatement(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatementDetail{Statement: stmt, Lines: lines}, nil
}

// List returns the statements of a company
func (s *statementServiceImpl) List(ctx context.Context, companyID string) ([]*entity.Statement, error) {
	return s.deps.Statements.List(ctx, companyID)
}

// Generate rebuilds the line set from the ledger and replaces the stored
// lines in one transaction.
func (s *statementServiceImpl) Generate(ctx context.Context, id string) (detail *StatementDetail, err error) {
	start := time.Now()
	lineCount := 0
	defer func() {
		s.deps.Metrics.ObserveGenerate(err, lineCount, time.Since(start))
	}()

	stmt, err := s.deps.Statements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	machine, err := workflow.NewStatementMachine(stmt.Status)
	if err != nil {
		return nil, err
	}
	if err = machine.Fire(workflow.TriggerGenerate); err != nil {
		return nil, fmt.Errorf("cannot generate statement in status %s: %w", stmt.Status, err)
	}

	s.deps.Logger.Info("Generating statement", "statement_id", id, "period", stmt.PeriodLabel())

	result, err := s.deps.Aggregator.Generate(ctx, stmt)
	if err != nil {
		s.deps.Logger.Error("Aggregation failed", "error", err, "statement_id", id)
		return nil, err
	}

	err = s.deps.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.deps.Lines.DeleteByStatement(ctx, stmt.ID); err != nil {
			return err
		}
		if err := s.deps.Lines.CreateBatch(ctx, result.Lines); err != nil {
			return err
		}

		stmt.Totals = result.Totals
		stmt.Status = machine.State().String()
		stmt.ClearArtifacts()
		return s.deps.Statements.Update(ctx, stmt)
	})
	if err != nil {
		s.deps.Logger.Error("Failed to store generated lines", "error", err, "statement_id", id)
		return nil, err
	}

	lineCount = len(result.Lines)
	s.deps.Logger.Info("Statement generated",
		"statement_id", id,
		"run_id", result.RunID,
		"documents", result.DocumentCount,
		"lines", lineCount)
	s.publish(ctx, event.NewEvent(event.TypeStatementGenerated, stmt).
		WithPayload(event.KeyLineCount, lineCount).
		WithPayload(event.KeyDocumentCount, result.DocumentCount))

	return &StatementDetail{Statement: stmt, Lines: result.Lines}, nil
}

// Confirm freezes a generated statement
func (s *statementServiceImpl) Confirm(ctx context.Context, id string) (stmt *entity.Statement, err error) {
	defer func() {
		s.deps.Metrics.ObserveTransition(workflow.TriggerConfirm.String(), err)
	}()

	stmt, err = s.transition(ctx, id, workflow.TriggerConfirm, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.NewEvent(event.TypeStatementConfirmed, stmt))
	return stmt, nil
}

// ResetToDraft discards the lines, totals and artifacts of a statement
func (s *statementServiceImpl) ResetToDraft(ctx context.Context, id string) (stmt *entity.Statement, err error) {
	defer func() {
		s.deps.Metrics.ObserveTransition(workflow.TriggerReset.String(), err)
	}()

	stmt, err = s.transition(ctx, id, workflow.TriggerReset, func(ctx context.Context, stmt *entity.Statement) error {
		deleted, err := s.deps.Lines.DeleteByStatement(ctx, stmt.ID)
		if err != nil {
			return err
		}
		s.deps.Logger.Info("Discarded report lines", "statement_id", stmt.ID, "count", deleted)

		stmt.Totals = entity.Totals{}
		stmt.ClearArtifacts()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.NewEvent(event.TypeStatementReset, stmt))
	return stmt, nil
}

// transition fires trigger and stores the new status, running apply in the
// same transaction.
func (s *statementServiceImpl) transition(
	ctx context.Context,
	id string,
	trigger workflow.Trigger,
	apply func(ctx context.Context, stmt *entity.Statement) error,
) (*entity.Statement, error) {
	var stmt *entity.Statement
	err := s.deps.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		stmt, err = s.deps.Statements.GetByID(ctx, id)
		if err != nil {
			return err
		}

		machine, err := workflow.NewStatementMachine(stmt.Status)
		if err != nil {
			return err
		}
		if err := machine.Fire(trigger); err != nil {
			return fmt.Errorf("cannot %s statement in status %s: %w", trigger, stmt.Status, err)
		}

		if apply != nil {
			if err := apply(ctx, stmt); err != nil {
				return err
			}
		}
		stmt.Status = machine.State().String()
		return s.deps.Statements.Update(ctx, stmt)
	})
	if err != nil {
		s.deps.Logger.Error("Statement transition failed", "error", err, "statement_id", id, "trigger", trigger.String())
		return nil, err
	}

	s.deps.Logger.Info("Statement transitioned", "statement_id", id, "trigger", trigger.String(), "status", stmt.Status)
	return stmt, nil
}

// ExportXML renders the submission file. Requires confirmed or exported.
func (s *statementServiceImpl) ExportXML(ctx context.Context, id string) (*ExportResult, error) {
	return s.export(ctx, id, export.FormatXML)
}

// ExportXLSX renders the spreadsheet. Requires generated, confirmed or exported.
// A generated statement stays generated: the spreadsheet is a working copy
// for review and only the confirmed statement moves to exported.
func (s *statementServiceImpl) ExportXLSX(ctx context.Context, id string) (*ExportResult, error) {
	return s.export(ctx, id, export.FormatXLSX)
}

func (s *statementServiceImpl) export(ctx context.Context, id string, format export.Format) (result *ExportResult, err error) {
	start := time.Now()
	defer func() {
		exported := result != nil && result.Exported
		s.deps.Metrics.ObserveExport(string(format), exported, err, time.Since(start))
	}()

	stmt, err := s.deps.Statements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !exportAllowed(stmt, format) {
		warning := fmt.Errorf("%w: %s export is not available while the statement is %s",
			statement.ErrExportNotAllowed, format, stmt.Status)
		s.deps.Logger.Info("Export refused", "statement_id", id, "format", string(format), "status", stmt.Status)
		return &ExportResult{Warning: warning, Statement: stmt}, nil
	}

	artifact, err := s.render(ctx, stmt, format)
	if err != nil {
		s.deps.Logger.Error("Failed to render statement", "error", err, "statement_id", id, "format", string(format))
		return nil, err
	}

	switch format {
	case export.FormatXML:
		stmt.XMLFile = artifact.Content
		stmt.XMLFileName = artifact.FileName
	case export.FormatXLSX:
		stmt.XLSXFile = artifact.Content
		stmt.XLSXFileName = artifact.FileName
	}

	machine, err := workflow.NewStatementMachine(stmt.Status)
	if err != nil {
		return nil, err
	}
	if machine.CanFire(workflow.TriggerExport) {
		if err := machine.Fire(workflow.TriggerExport); err != nil {
			return nil, err
		}
		stmt.Status = machine.State().String()
	}

	// The file is written last so a failed update leaves nothing on disk;
	// a failed commit removes it again.
	path := ArtifactPath(stmt, artifact.FileName)
	fileWritten := false
	err = s.deps.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Statements.Update(ctx, stmt); err != nil {
			return err
		}
		if s.deps.Artifacts == nil {
			return nil
		}
		if err := s.deps.Artifacts.Save(ctx, path, artifact.Content); err != nil {
			return err
		}
		fileWritten = true
		return nil
	})
	if err != nil {
		if fileWritten {
			if delErr := s.deps.Artifacts.Delete(ctx, path); delErr != nil {
				s.deps.Logger.Error("Failed to remove artifact", "error", delErr, "path", path)
			}
		}
		s.deps.Logger.Error("Failed to store artifact", "error", err, "statement_id", id)
		return nil, err
	}

	s.deps.Logger.Info("Statement exported",
		"statement_id", id,
		"file", artifact.FileName,
		"size", len(artifact.Content),
		"status", stmt.Status)
	s.publish(ctx, event.NewEvent(event.TypeStatementExported, stmt).
		WithPayload(event.KeyFormat, string(artifact.Format)).
		WithPayload(event.KeyFileName, artifact.FileName))

	return &ExportResult{Exported: true, Artifact: artifact, Statement: stmt}, nil
}

func exportAllowed(stmt *entity.Statement, format export.Format) bool {
	if format == export.FormatXML {
		return stmt.CanExportXML()
	}
	return stmt.CanExportXLSX()
}

func (s *statementServiceImpl) render(ctx context.Context, stmt *entity.Statement, format export.Format) (*export.Artifact, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	lines, err := s.deps.Lines.ListByStatement(ctx, stmt.ID)
	if err != nil {
		return nil, err
	}

	company, err := s.deps.Companies.GetByID(ctx, stmt.CompanyID)
	if err != nil && !errors.Is(err, port.ErrNotFound) {
		return nil, err
	}

	model, err := export.BuildReadModel(ctx, stmt, lines, company, s.deps.Ledger, export.BuildOptions{
		DomesticPrefix: s.opts.DomesticPrefix,
		Namespace:      s.opts.XMLNamespace,
	})
	if err != nil {
		return nil, err
	}
	return renderer.Render(model)
}

// Artifact returns a previously exported file
func (s *statementServiceImpl) Artifact(ctx context.Context, id string, format export.Format) (*export.Artifact, error) {
	stmt, err := s.deps.Statements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var content []byte
	var name, contentType string
	switch format {
	case export.FormatXML:
		content, name, contentType = stmt.XMLFile, stmt.XMLFileName, export.ContentTypeXML
	case export.FormatXLSX:
		content, name, contentType = stmt.XLSXFile, stmt.XLSXFileName, export.ContentTypeXLSX
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %s for statement %s", ErrArtifactMissing, format, id)
	}
	return &export.Artifact{Format: format, FileName: name, ContentType: contentType, Content: content}, nil
}

// Notes lists the chatter of a statement
func (s *statementServiceImpl) Notes(ctx context.Context, id string) ([]*entity.Note, error) {
	if _, err := s.deps.Statements.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.deps.NoteReader == nil {
		return nil, nil
	}
	return s.deps.NoteReader.ListByStatement(ctx, id)
}

// publish hands a lifecycle event to the subscribers. Subscriber failures
// are logged and never undo the operation.
func (s *statementServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, evt); err != nil {
		s.deps.Logger.Error("Failed to publish event", "error", err, "event_type", evt.Type, "statement_id", evt.StatementID)
	}
}

// ArtifactPath is where an exported file of the statement is stored
func ArtifactPath(stmt *entity.Statement, fileName string) string {
	return fmt.Sprintf("%s/%04d/%02d/%s", stmt.CompanyID, stmt.Year, stmt.Month, fileName)
}
