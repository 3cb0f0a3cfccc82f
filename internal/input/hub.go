// Package input receives raw pointer and fiducial events and re-dispatches them to
// subscribers on a dispatch.Pool, deduplicating down/up pairs per cursor identifier.
package input

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
)

// ErrClosed is returned by Raise methods after Close.
var ErrClosed = errors.New("input: hub closed")

// Subscription identifies one registered handler. Cancel removes it.
type Subscription struct {
	hub  *Hub
	kind Kind
	id   uint64
}

// Cancel unregisters the handler. Cancelling twice, or cancelling the zero
// Subscription, is a no-op.
//
// Postcondition: Returns true iff the handler was registered before the call.
func (s Subscription) Cancel() bool {
	if s.hub == nil {
		return false
	}
	return s.hub.unsubscribe(s.kind, s.id)
}

type cursorEntry struct {
	id uint64
	fn CursorHandler
}

type objectEntry struct {
	id uint64
	fn ObjectHandler
}

// Hub is the single source of pointer and fiducial events for one running game.
// Every Raise method returns after enqueueing; handlers run later on the pool.
type Hub struct {
	logger *zap.Logger
	pool   *dispatch.Pool

	// cursorMu guards cursors, the id -> is-down table.
	cursorMu sync.Mutex
	cursors  map[int]bool

	handlerMu      sync.RWMutex
	nextID         uint64
	cursorHandlers map[Kind][]cursorEntry
	objectHandlers map[Kind][]objectEntry

	closed atomic.Bool
}

// NewHub creates a Hub that dispatches on pool.
//
// Precondition: logger and pool must be non-nil; pool should be started before events are raised.
// Postcondition: Returns a Hub with an empty cursor table and no handlers.
func NewHub(logger *zap.Logger, pool *dispatch.Pool) *Hub {
	return &Hub{
		logger:         logger.Named("input"),
		pool:           pool,
		cursors:        make(map[int]bool),
		cursorHandlers: make(map[Kind][]cursorEntry),
		objectHandlers: make(map[Kind][]objectEntry),
	}
}

// OnCursorDown registers fn for CursorDown events.
func (h *Hub) OnCursorDown(fn CursorHandler) Subscription {
	return h.subscribeCursor(CursorDown, fn)
}

// OnCursorUp registers fn for CursorUp events.
func (h *Hub) OnCursorUp(fn CursorHandler) Subscription {
	return h.subscribeCursor(CursorUp, fn)
}

// OnCursorUpdate registers fn for CursorUpdate events.
func (h *Hub) OnCursorUpdate(fn CursorHandler) Subscription {
	return h.subscribeCursor(CursorUpdate, fn)
}

// OnObjectAdded registers fn for ObjectAdded events.
func (h *Hub) OnObjectAdded(fn ObjectHandler) Subscription {
	return h.subscribeObject(ObjectAdded, fn)
}

// OnObjectUpdated registers fn for ObjectUpdated events.
func (h *Hub) OnObjectUpdated(fn ObjectHandler) Subscription {
	return h.subscribeObject(ObjectUpdated, fn)
}

// OnObjectRemoved registers fn for ObjectRemoved events.
func (h *Hub) OnObjectRemoved(fn ObjectHandler) Subscription {
	return h.subscribeObject(ObjectRemoved, fn)
}

// RaiseCursorDown records id as down, then enqueues a CursorDown dispatch. The table
// update happens on the calling goroutine before the event is queued.
//
// Postcondition: IsDown(id) is true; returns nil or ErrClosed / a dispatch error.
func (h *Hub) RaiseCursorDown(id int, pos geom.Vec2) error {
	if h.closed.Load() {
		return ErrClosed
	}
	h.cursorMu.Lock()
	h.cursors[id] = true
	h.cursorMu.Unlock()

	return h.dispatchCursor(CursorDown, CursorEvent{ID: id, Position: pos})
}

// RaiseCursorUp enqueues a CursorUp dispatch only if id is recorded as down; a release
// with no matching down is dropped silently.
//
// Postcondition: IsDown(id) is false.
func (h *Hub) RaiseCursorUp(id int, pos geom.Vec2) error {
	if h.closed.Load() {
		return ErrClosed
	}
	h.cursorMu.Lock()
	wasDown := h.cursors[id]
	if wasDown {
		h.cursors[id] = false
	}
	h.cursorMu.Unlock()

	if !wasDown {
		h.logger.Debug("dropping release without press", zap.Int("cursor", id))
		return nil
	}
	return h.dispatchCursor(CursorUp, CursorEvent{ID: id, Position: pos})
}

// RaiseCursorUpdate enqueues a CursorUpdate dispatch only while id is down.
func (h *Hub) RaiseCursorUpdate(id int, pos geom.Vec2) error {
	if h.closed.Load() {
		return ErrClosed
	}
	if !h.IsDown(id) {
		return nil
	}
	return h.dispatchCursor(CursorUpdate, CursorEvent{ID: id, Position: pos})
}

// RaiseObjectAdded enqueues an ObjectAdded dispatch.
func (h *Hub) RaiseObjectAdded(ev ObjectEvent) error {
	return h.dispatchObject(ObjectAdded, ev)
}

// RaiseObjectUpdated enqueues an ObjectUpdated dispatch.
func (h *Hub) RaiseObjectUpdated(ev ObjectEvent) error {
	return h.dispatchObject(ObjectUpdated, ev)
}

// RaiseObjectRemoved enqueues an ObjectRemoved dispatch.
func (h *Hub) RaiseObjectRemoved(ev ObjectEvent) error {
	return h.dispatchObject(ObjectRemoved, ev)
}

// IsDown reports whether the cursor table records id as down.
func (h *Hub) IsDown(id int) bool {
	h.cursorMu.Lock()
	defer h.cursorMu.Unlock()
	return h.cursors[id]
}

// Cursors returns the number of cursor identifiers ever seen.
func (h *Hub) Cursors() int {
	h.cursorMu.Lock()
	defer h.cursorMu.Unlock()
	return len(h.cursors)
}

// Close stops accepting events and drops every handler. It does not stop the pool.
//
// Postcondition: Subsequent Raise calls return ErrClosed.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.handlerMu.Lock()
	h.cursorHandlers = make(map[Kind][]cursorEntry)
	h.objectHandlers = make(map[Kind][]objectEntry)
	h.handlerMu.Unlock()
}

func (h *Hub) subscribeCursor(kind Kind, fn CursorHandler) Subscription {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.nextID++
	h.cursorHandlers[kind] = append(h.cursorHandlers[kind], cursorEntry{id: h.nextID, fn: fn})
	return Subscription{hub: h, kind: kind, id: h.nextID}
}

func (h *Hub) subscribeObject(kind Kind, fn ObjectHandler) Subscription {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.nextID++
	h.objectHandlers[kind] = append(h.objectHandlers[kind], objectEntry{id: h.nextID, fn: fn})
	return Subscription{hub: h, kind: kind, id: h.nextID}
}

func (h *Hub) unsubscribe(kind Kind, id uint64) bool {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	if kind.IsCursor() {
		list := h.cursorHandlers[kind]
		for i, e := range list {
			if e.id == id {
				h.cursorHandlers[kind] = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
		return false
	}
	list := h.objectHandlers[kind]
	for i, e := range list {
		if e.id == id {
			h.objectHandlers[kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// dispatchCursor enqueues delivery; handlers are looked up when the task runs so a
// handler cancelled before delivery is not called.
func (h *Hub) dispatchCursor(kind Kind, ev CursorEvent) error {
	err := h.pool.Submit(func() {
		h.handlerMu.RLock()
		handlers := h.cursorHandlers[kind]
		h.handlerMu.RUnlock()
		for _, e := range handlers {
			e.fn(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("dispatching %s for cursor %d: %w", kind, ev.ID, err)
	}
	return nil
}

func (h *Hub) dispatchObject(kind Kind, ev ObjectEvent) error {
	if h.closed.Load() {
		return ErrClosed
	}
	err := h.pool.Submit(func() {
		h.handlerMu.RLock()
		handlers := h.objectHandlers[kind]
		h.handlerMu.RUnlock()
		for _, e := range handlers {
			e.fn(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("dispatching %s for object %d: %w", kind, ev.ID, err)
	}
	return nil
}
