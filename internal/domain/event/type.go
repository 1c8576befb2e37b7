package event

// Type identifies the type of domain event
type Type string

const (
	TypeStatementCreated   Type = "statement.created"
	TypeStatementGenerated Type = "statement.generated"
	TypeStatementConfirmed Type = "statement.confirmed"
	TypeStatementReset     Type = "statement.reset"
	TypeStatementExported  Type = "statement.exported"
)

// AllTypes lists every statement event type
var AllTypes = []Type{
	TypeStatementCreated,
	TypeStatementGenerated,
	TypeStatementConfirmed,
	TypeStatementReset,
	TypeStatementExported,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}
