// Package dispatcher fans statement events out to subscribed handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/kvdph/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Dispatcher routes events to the handlers subscribed to their type.
// Handlers run in subscription order; a failing handler does not stop the
// ones after it.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[event.Type][]subscription
	logger Logger

	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*Dispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		subs: make(map[event.Type][]subscription),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers handler under name for the given types, or for every
// statement event type when none are given.
func (d *Dispatcher) Subscribe(name string, handler Handler, types ...event.Type) {
	if len(types) == 0 {
		types = event.AllTypes
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range types {
		d.subs[t] = append(d.subs[t], subscription{name: name, handler: handler})
	}

	d.logInfo("Handler registered", "handler_name", name, "event_types", len(types))
}

// Handlers returns the names subscribed to an event type, in order
func (d *Dispatcher) Handlers(eventType event.Type) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.subs[eventType]))
	for _, s := range d.subs[eventType] {
		names = append(names, s.name)
	}
	return names
}

// Publish runs the handlers of the event synchronously and returns the
// joined handler errors
func (d *Dispatcher) Publish(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.dispatch(ctx, evt)
}

func (d *Dispatcher) dispatch(ctx context.Context, evt *event.Event) error {
	var errs []error
	for _, s := range d.subscriptions(evt.Type) {
		if err := d.safeExecute(ctx, evt, s); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"statement_id", evt.StatementID,
				"handler_name", s.name,
				"error", err)
			errs = append(errs, fmt.Errorf("handler %s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close rejects further events
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	d.logInfo("Dispatcher closed")
	return nil
}

func (d *Dispatcher) subscriptions(t event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]subscription(nil), d.subs[t]...)
}

// safeExecute runs a handler with panic recovery
func (d *Dispatcher) safeExecute(ctx context.Context, evt *event.Event, s subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(ctx, evt)
}

func (d *Dispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *Dispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
