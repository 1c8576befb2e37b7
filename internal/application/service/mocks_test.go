package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/domain/event"
	"github.com/garyjia/kvdph/internal/statement"
)

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockStatementRepo struct {
	mu          sync.Mutex
	statements  map[string]*entity.Statement
	sequences   map[int]int
	updateCalls int
	updateFunc  func(ctx context.Context, stmt *entity.Statement) error
}

func newMockStatementRepo() *mockStatementRepo {
	return &mockStatementRepo{
		statements: make(map[string]*entity.Statement),
		sequences:  make(map[int]int),
	}
}

func (m *mockStatementRepo) put(stmt *entity.Statement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *stmt
	m.statements[stmt.ID] = &copied
}

func (m *mockStatementRepo) Create(ctx context.Context, stmt *entity.Statement) error {
	m.put(stmt)
	return nil
}

func (m *mockStatementRepo) GetByID(ctx context.Context, id string) (*entity.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stmt, ok := m.statements[id]
	if !ok {
		return nil, fmt.Errorf("%w: statement %s", port.ErrNotFound, id)
	}
	copied := *stmt
	return &copied, nil
}

func (m *mockStatementRepo) GetByPeriod(ctx context.Context, companyID string, year, month int) (*entity.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stmt := range m.statements {
		if stmt.CompanyID == companyID && stmt.Year == year && stmt.Month == month {
			copied := *stmt
			return &copied, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockStatementRepo) List(ctx context.Context, companyID string) ([]*entity.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Statement
	for _, stmt := range m.statements {
		if companyID == "" || stmt.CompanyID == companyID {
			copied := *stmt
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStatementRepo) Update(ctx context.Context, stmt *entity.Statement) error {
	m.updateCalls++
	if m.updateFunc != nil {
		if err := m.updateFunc(ctx, stmt); err != nil {
			return err
		}
	}
	m.put(stmt)
	return nil
}

func (m *mockStatementRepo) NextReference(ctx context.Context, year int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[year]++
	return fmt.Sprintf("KV/%04d/%04d", year, m.sequences[year]), nil
}

type mockLineRepo struct {
	lines           map[string][]*entity.ReportLine
	createBatchFunc func(ctx context.Context, lines []*entity.ReportLine) error
	deleteCalls     int
}

func newMockLineRepo() *mockLineRepo {
	return &mockLineRepo{lines: make(map[string][]*entity.ReportLine)}
}

func (m *mockLineRepo) CreateBatch(ctx context.Context, lines []*entity.ReportLine) error {
	if m.createBatchFunc != nil {
		if err := m.createBatchFunc(ctx, lines); err != nil {
			return err
		}
	}
	for _, line := range lines {
		m.lines[line.StatementID] = append(m.lines[line.StatementID], line)
	}
	return nil
}

func (m *mockLineRepo) DeleteByStatement(ctx context.Context, statementID string) (int64, error) {
	m.deleteCalls++
	n := len(m.lines[statementID])
	delete(m.lines, statementID)
	return int64(n), nil
}

func (m *mockLineRepo) ListByStatement(ctx context.Context, statementID string) ([]*entity.ReportLine, error) {
	return m.lines[statementID], nil
}

type mockCompanyRepo struct {
	companies map[string]*entity.Company
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", port.ErrNotFound, id)
	}
	return c, nil
}

func (m *mockCompanyRepo) Save(ctx context.Context, c *entity.Company) error {
	m.companies[c.ID] = c
	return nil
}

type mockLedger struct {
	partners  map[string]*entity.Partner
	documents map[string]*entity.Document
}

func (m *mockLedger) FindDocuments(ctx context.Context, q port.LedgerQuery) ([]*entity.Document, error) {
	return nil, nil
}

func (m *mockLedger) FindReversals(ctx context.Context, companyID string, ids []string) ([]*entity.Document, error) {
	return nil, nil
}

func (m *mockLedger) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	if doc, ok := m.documents[id]; ok {
		return doc, nil
	}
	return nil, port.ErrNotFound
}

func (m *mockLedger) GetPartner(ctx context.Context, id string) (*entity.Partner, error) {
	if p, ok := m.partners[id]; ok {
		return p, nil
	}
	return nil, port.ErrNotFound
}

type mockAggregator struct {
	generateFunc func(ctx context.Context, stmt *entity.Statement) (*statement.Result, error)
	calls        int
}

func (m *mockAggregator) Generate(ctx context.Context, stmt *entity.Statement) (*statement.Result, error) {
	m.calls++
	return m.generateFunc(ctx, stmt)
}

type mockEvents struct {
	events []*event.Event
	err    error
}

func (m *mockEvents) Publish(ctx context.Context, evt *event.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *mockEvents) types() []event.Type {
	types := make([]event.Type, 0, len(m.events))
	for _, evt := range m.events {
		types = append(types, evt.Type)
	}
	return types
}

type mockArtifacts struct {
	saved map[string][]byte
}

func (m *mockArtifacts) Save(ctx context.Context, path string, content []byte) error {
	m.saved[path] = content
	return nil
}

func (m *mockArtifacts) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.saved[path]
	if !ok {
		return nil, port.ErrNotFound
	}
	return content, nil
}

func (m *mockArtifacts) Delete(ctx context.Context, path string) error {
	delete(m.saved, path)
	return nil
}

func (m *mockArtifacts) FullPath(relativePath string) string {
	return "/artifacts/" + relativePath
}
