// Package events carries deploy step outcomes from the deploy sequences to
// the components that follow them: history store, MQTT and the web console.
package events

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Step types
const (
	MashupDeleted   = "mashup_deleted"
	MashupPushed    = "mashup_pushed"
	PushFailed      = "push_failed"
	ThingCreated    = "thing_created"
	ThingExists     = "thing_exists"
	ThingEnabled    = "thing_enabled"
	ThingFailed     = "thing_failed"
	MashupInspected = "mashup_inspected"
)

// Event is the outcome of one deploy step. Steps of the same sequence
// share a RunID.
type Event struct {
	Type   string    `json:"type"`
	RunID  string    `json:"run_id,omitempty"`
	Name   string    `json:"name"`
	Status int       `json:"status,omitempty"` // HTTP status when one was received
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Failed reports whether the step left the entity short of its goal.
func (e Event) Failed() bool {
	return e.Type == PushFailed || e.Type == ThingFailed
}

// Handler is a callback for events.
type Handler func(Event)

type subscription struct {
	types []string // empty means every step
	fn    Handler
}

func (s *subscription) wants(typ string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, typ)
}

// Bus fans deploy steps out to subscribers, in the order they subscribed.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *slog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers fn for the given step types, or for every step when
// none are given. The returned func removes the subscription.
func (b *Bus) Subscribe(fn Handler, types ...string) func() {
	sub := &subscription{types: types, fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs = slices.DeleteFunc(b.subs, func(s *subscription) bool { return s == sub })
		})
	}
}

// Emit delivers ev synchronously, stamping Time when unset. A panicking
// subscriber is logged and the rest still run.
func (b *Bus) Emit(ev Event) {
	if b == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	var targets []Handler
	for _, s := range b.subs {
		if s.wants(ev.Type) {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		b.deliver(fn, ev)
	}
}

func (b *Bus) deliver(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panic", "type", ev.Type, "name", ev.Name, "panic", r)
		}
	}()
	fn(ev)
}
