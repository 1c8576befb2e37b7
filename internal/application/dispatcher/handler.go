package dispatcher

import (
	"context"

	"github.com/garyjia/kvdph/internal/domain/event"
)

// Handler processes a statement event
type Handler func(ctx context.Context, evt *event.Event) error

// subscription is a named handler bound to a set of event types
type subscription struct {
	name    string
	handler Handler
}
