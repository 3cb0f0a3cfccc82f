package input

import (
	"fmt"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
)

// Kind identifies an input event category.
type Kind int

const (
	// CursorDown fires when a touch point or the mouse button goes down.
	CursorDown Kind = iota
	// CursorUp fires when a cursor previously recorded as down is released.
	CursorUp
	// CursorUpdate fires when a cursor that is down moves.
	CursorUpdate
	// ObjectAdded fires when a fiducial marker is placed on the surface.
	ObjectAdded
	// ObjectUpdated fires when a fiducial marker moves or rotates.
	ObjectUpdated
	// ObjectRemoved fires when a fiducial marker is lifted.
	ObjectRemoved
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case CursorDown:
		return "cursor_down"
	case CursorUp:
		return "cursor_up"
	case CursorUpdate:
		return "cursor_update"
	case ObjectAdded:
		return "object_added"
	case ObjectUpdated:
		return "object_updated"
	case ObjectRemoved:
		return "object_removed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsCursor reports whether k carries a CursorEvent.
func (k Kind) IsCursor() bool {
	return k == CursorDown || k == CursorUp || k == CursorUpdate
}

// CursorEvent is a pointer event for one touch point. The mouse is cursor 0.
type CursorEvent struct {
	ID       int
	Position geom.Vec2
}

// ObjectEvent is a fiducial marker event.
type ObjectEvent struct {
	// ID is the session identifier of the marker instance.
	ID int
	// Tag is the printed marker symbol.
	Tag      int
	Position geom.Vec2
	// Angle is the marker rotation in radians.
	Angle float64
}

// CursorHandler receives cursor events on a dispatch worker.
type CursorHandler func(CursorEvent)

// ObjectHandler receives fiducial events on a dispatch worker.
type ObjectHandler func(ObjectEvent)
