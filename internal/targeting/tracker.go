package targeting

import (
	"sync"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/menu"
)

type phase int

const (
	phaseIdle phase = iota
	// phaseArmed: activated, waiting for the first touch inside reach.
	phaseArmed
	// phaseGrabbed: a cursor is held inside reach; the sub-mode owns input.
	phaseGrabbed
)

type outcome int

const (
	outcomeNone outcome = iota
	outcomeStarted
	outcomeCommitted
	outcomeCanceled
)

// tracker is the touch state shared by the Mover and Aim implementations. A session
// starts when a cursor goes down within reach of the acting unit, commits when that
// cursor is released within reach, and cancels when it is released outside reach or
// another cursor goes down outside reach while grabbed.
type tracker struct {
	field geom.Rect

	mu       sync.Mutex
	phase    phase
	origin   *menu.Entry
	reach    float64
	listener any
	cursor   int
	point    geom.Vec2
}

// event is what a handler must report once the lock is released.
type event struct {
	outcome  outcome
	origin   *menu.Entry
	listener any
	point    geom.Vec2
}

func (t *tracker) activate(origin *menu.Entry, reach float64, l any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phaseArmed
	t.origin = origin
	t.reach = reach
	t.listener = l
}

func (t *tracker) deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

func (t *tracker) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase != phaseIdle
}

func (t *tracker) clearLocked() {
	t.phase = phaseIdle
	t.origin = nil
	t.listener = nil
}

func (t *tracker) acceptsLocked(p geom.Vec2) bool {
	if !t.field.Contains(p) {
		return false
	}
	return t.origin.Owner().Position().Distance(p) <= t.reach
}

func (t *tracker) down(ev input.CursorEvent) event {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.phase {
	case phaseArmed:
		if !t.acceptsLocked(ev.Position) {
			return event{}
		}
		t.phase = phaseGrabbed
		t.cursor = ev.ID
		t.point = ev.Position
		return event{outcome: outcomeStarted, origin: t.origin, listener: t.listener}
	case phaseGrabbed:
		if ev.ID == t.cursor || t.acceptsLocked(ev.Position) {
			return event{}
		}
		e := event{outcome: outcomeCanceled, origin: t.origin, listener: t.listener}
		t.clearLocked()
		return e
	default:
		return event{}
	}
}

func (t *tracker) update(ev input.CursorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == phaseGrabbed && ev.ID == t.cursor && t.acceptsLocked(ev.Position) {
		t.point = ev.Position
	}
}

func (t *tracker) up(ev input.CursorEvent) event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != phaseGrabbed || ev.ID != t.cursor {
		return event{}
	}
	e := event{origin: t.origin, listener: t.listener, point: ev.Position}
	if t.acceptsLocked(ev.Position) {
		e.outcome = outcomeCommitted
	} else {
		e.outcome = outcomeCanceled
	}
	t.clearLocked()
	return e
}
