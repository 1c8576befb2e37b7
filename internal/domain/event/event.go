package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

// Payload keys
const (
	KeyReference     = "reference"
	KeyPeriod        = "period"
	KeyStatus        = "status"
	KeyLineCount     = "line_count"
	KeyDocumentCount = "document_count"
	KeyFileName      = "file_name"
	KeyFormat        = "format"
)

// Event is a statement lifecycle event
type Event struct {
	ID          string                 `json:"id"`
	Type        Type                   `json:"type"`
	StatementID string                 `json:"statement_id"`
	CompanyID   string                 `json:"company_id"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewEvent creates an event for the statement, seeding the payload with its
// reference, period and status.
func NewEvent(eventType Type, stmt *entity.Statement) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		StatementID: stmt.ID,
		CompanyID:   stmt.CompanyID,
		Payload: map[string]interface{}{
			KeyReference: stmt.Reference,
			KeyPeriod:    stmt.PeriodLabel(),
			KeyStatus:    stmt.Status,
		},
		Timestamp: time.Now().UTC(),
	}
}

// WithPayload returns a copy of the event with key set
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	copied := *e
	copied.Payload = payload
	return &copied
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if str, ok := e.Payload[key].(string); ok {
		return str
	}
	return ""
}

// GetPayloadInt retrieves an integer value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
