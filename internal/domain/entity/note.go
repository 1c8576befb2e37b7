package entity

import "time"

// Note is a chatter entry attached to a statement
type Note struct {
	ID          string    `json:"id"`
	StatementID string    `json:"statement_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
