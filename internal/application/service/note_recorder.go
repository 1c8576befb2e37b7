package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/domain/event"
)

// NoteRecorder turns statement events into chatter notes
type NoteRecorder struct {
	repo  port.NoteRepository
	newID func() string
	now   func() time.Time
}

// NewNoteRecorder creates a note recorder
func NewNoteRecorder(repo port.NoteRepository) *NoteRecorder {
	return &NoteRecorder{
		repo:  repo,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle stores the message of evt as a note of its statement
func (r *NoteRecorder) Handle(ctx context.Context, evt *event.Event) error {
	body := NoteBody(evt)
	if body == "" {
		return nil
	}
	return r.repo.Append(ctx, &entity.Note{
		ID:          r.newID(),
		StatementID: evt.StatementID,
		Body:        body,
		CreatedAt:   r.now(),
	})
}

// NoteBody renders the chatter message of an event. Unknown types yield "".
func NoteBody(evt *event.Event) string {
	switch evt.Type {
	case event.TypeStatementCreated:
		return fmt.Sprintf("Statement %s created for %s",
			evt.GetPayloadString(event.KeyReference), evt.GetPayloadString(event.KeyPeriod))
	case event.TypeStatementGenerated:
		return fmt.Sprintf("Generated %d lines from %d documents",
			evt.GetPayloadInt(event.KeyLineCount), evt.GetPayloadInt(event.KeyDocumentCount))
	case event.TypeStatementConfirmed:
		return "Statement confirmed"
	case event.TypeStatementReset:
		return "Statement reset to draft"
	case event.TypeStatementExported:
		return fmt.Sprintf("Exported %s", evt.GetPayloadString(event.KeyFileName))
	default:
		return ""
	}
}
