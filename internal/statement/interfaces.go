package statement

import (
	"context"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

// DocumentSource is the part of the ledger the aggregator reads
type DocumentSource interface {
	FindDocuments(ctx context.Context, query port.LedgerQuery) ([]*entity.Document, error)
	FindReversals(ctx context.Context, companyID string, invoiceIDs []string) ([]*entity.Document, error)
}

// Observer receives every classification decision taken during a run
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, event Event)

// Observe calls f(ctx, event).
func (f ObserverFunc) Observe(ctx context.Context, event Event) {
	f(ctx, event)
}
