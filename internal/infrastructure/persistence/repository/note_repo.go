package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
)

// NoteRepository implements port.NoteRepository
type NoteRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlstore.DB, logger *zap.Logger) port.NoteRepository {
	return &NoteRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a note
func (r *NoteRepository) Append(ctx context.Context, note *entity.Note) error {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx,
		`INSERT INTO statement_notes (id, statement_id, body, created_at) VALUES (?, ?, ?, ?)`,
		note.ID, note.StatementID, note.Body, note.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append note", zap.String("statement_id", note.StatementID), zap.Error(err))
		return fmt.Errorf("failed to append note: %w", err)
	}
	return nil
}

// ListByStatement returns notes oldest first
func (r *NoteRepository) ListByStatement(ctx context.Context, statementID string) ([]*entity.Note, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT id, statement_id, body, created_at FROM statement_notes WHERE statement_id = ? ORDER BY created_at, id`,
		statementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*entity.Note
	for rows.Next() {
		var n entity.Note
		if err := rows.Scan(&n.ID, &n.StatementID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}
