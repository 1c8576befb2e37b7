package statement

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Decision names a classification step
type Decision string

const (
	DecisionDocumentSelected   Decision = "document_selected"
	DecisionDocumentOutOfRange Decision = "document_out_of_period"
	DecisionLineUntaxed        Decision = "line_untaxed"
	DecisionGroupZeroBase      Decision = "group_zero_base"
	DecisionLineEmitted        Decision = "line_emitted"
	DecisionGroupAccumulated   Decision = "group_accumulated"
	DecisionSummaryEmitted     Decision = "summary_emitted"
)

// Event describes one decision of a generation run
type Event struct {
	RunID          string
	StatementID    string
	Decision       Decision
	DocumentID     string
	DocumentNumber string
	Bucket         string
	Rate           decimal.Decimal
	Base           decimal.Decimal
	Tax            decimal.Decimal
	Count          int
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}

// LogObserver writes decisions to a zap logger at debug level
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an observer logging through the given logger
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe logs the event.
func (o *LogObserver) Observe(_ context.Context, event Event) {
	if ce := o.logger.Check(zap.DebugLevel, "Statement classification"); ce != nil {
		ce.Write(
			zap.String("run_id", event.RunID),
			zap.String("statement_id", event.StatementID),
			zap.String("decision", string(event.Decision)),
			zap.String("document_id", event.DocumentID),
			zap.String("document_number", event.DocumentNumber),
			zap.String("bucket", event.Bucket),
			zap.String("rate", event.Rate.String()),
			zap.String("base", event.Base.String()),
			zap.String("tax", event.Tax.String()),
			zap.Int("count", event.Count),
		)
	}
}
