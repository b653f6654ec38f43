// Package gesture implements the interactive manipulation engine: the
// pan/zoom view controller and the per-card drag and resize controllers.
// Controllers are explicit state machines fed screen-space pointer, touch,
// and wheel input; they convert movement into workspace-space updates and
// dispatch them through narrow store-mutation interfaces. Everything here
// runs on the single event-dispatch goroutine; there is no locking and no
// blocking on the hot path.
package gesture

import "github.com/hylla/slab/internal/domain"

// PointerID distinguishes simultaneous contacts. The mouse is always
// MousePointer; touch identifiers come from the platform and stay stable
// for the lifetime of the contact.
type PointerID int

// MousePointer is the reserved identifier for the single mouse pointer.
const MousePointer PointerID = -1

// EventKind classifies a pointer event delivered during an active gesture.
type EventKind int

const (
	EventMove EventKind = iota
	EventUp
	EventCancel
)

// Touch is one live contact with its screen-space position.
type Touch struct {
	ID       PointerID
	Position domain.Point
}

// PointerEvent is one move/up/cancel callback. ID and Position describe the
// pointer that fired; Touches lists every live contact so multi-touch
// handlers can read both fingers from a single event.
type PointerEvent struct {
	Kind     EventKind
	ID       PointerID
	Position domain.Point
	Touches  []Touch
}

// TouchByID returns the live contact with the given identifier.
func (e PointerEvent) TouchByID(id PointerID) (Touch, bool) {
	for _, t := range e.Touches {
		if t.ID == id {
			return t, true
		}
	}
	return Touch{}, false
}

// Bus fans pointer events out to whichever controllers attached themselves
// for the duration of a gesture. Subscriptions are explicit owned handles,
// never ambient state, so a component teardown path can always
// force-unsubscribe and no listener outlives its gesture.
type Bus struct {
	nextID int
	subs   map[int]func(PointerEvent)
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: map[int]func(PointerEvent){}}
}

// Subscribe registers a handler and returns its handle.
func (b *Bus) Subscribe(fn func(PointerEvent)) *Subscription {
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	return &Subscription{bus: b, id: id}
}

// Publish delivers one event to every current subscriber. Handlers may
// unsubscribe themselves while being called.
func (b *Bus) Publish(ev PointerEvent) {
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if fn, ok := b.subs[id]; ok {
			fn(ev)
		}
	}
}

// Subscription is an owned handle to one bus registration.
type Subscription struct {
	bus *Bus
	id  int
}

// Close detaches the handler. Safe to call more than once and on nil.
func (s *Subscription) Close() {
	if s == nil || s.bus == nil {
		return
	}
	delete(s.bus.subs, s.id)
	s.bus = nil
}
