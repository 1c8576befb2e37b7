package workflow

import "github.com/garyjia/kvdph/internal/domain/entity"

// State represents a statement lifecycle state
type State string

const (
	StateDraft     State = entity.StatusDraft
	StateGenerated State = entity.StatusGenerated
	StateConfirmed State = entity.StatusConfirmed
	StateExported  State = entity.StatusExported
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateGenerated: true,
	StateConfirmed: true,
	StateExported:  true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known statement state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsLocked returns true once the statement content has been confirmed
func (s State) IsLocked() bool {
	return s == StateConfirmed || s == StateExported
}
