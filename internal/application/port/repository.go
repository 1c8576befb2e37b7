package port

import (
	"context"
	"errors"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateStatement is returned when a statement already exists for the period
	ErrDuplicateStatement = errors.New("statement already exists for this period")
)

// StatementRepository defines persistence operations for Statement
type StatementRepository interface {
	Create(ctx context.Context, stmt *entity.Statement) error
	GetByID(ctx context.Context, id string) (*entity.Statement, error)
	GetByPeriod(ctx context.Context, companyID string, year, month int) (*entity.Statement, error)
	List(ctx context.Context, companyID string) ([]*entity.Statement, error)
	Update(ctx context.Context, stmt *entity.Statement) error
	NextReference(ctx context.Context, year int) (string, error)
}

// ReportLineRepository stores the line set of a statement.
// Lines are only ever appended in batches and deleted per statement.
type ReportLineRepository interface {
	CreateBatch(ctx context.Context, lines []*entity.ReportLine) error
	DeleteByStatement(ctx context.Context, statementID string) (int64, error)
	ListByStatement(ctx context.Context, statementID string) ([]*entity.ReportLine, error)
}

// CompanyRepository reads and stores company profiles
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	Save(ctx context.Context, company *entity.Company) error
}

// NoteRepository stores statement chatter
type NoteRepository interface {
	Append(ctx context.Context, note *entity.Note) error
	ListByStatement(ctx context.Context, statementID string) ([]*entity.Note, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
