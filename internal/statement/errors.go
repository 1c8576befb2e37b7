package statement

import "errors"

var (
	// ErrNilStatement is returned when Generate is called without a statement
	ErrNilStatement = errors.New("statement is required")

	// ErrLedgerQuery wraps failures of the ledger collaborator
	ErrLedgerQuery = errors.New("ledger query failed")
)

// ErrExportNotAllowed is reported when the statement status does not permit an export
var ErrExportNotAllowed = errors.New("export not allowed in current status")
