// Package targeting defines the protocol between a command menu and the sub-modes
// that pick a destination (Mover) or a target (Aim), plus default implementations
// driven by an input.Hub.
//
// A sub-mode is activated by the menu, reports Started once the player begins
// interacting with it, and ends with exactly one of Moved/Aimed or TargetingCanceled.
// Deactivate ends it silently. Implementations never call a listener from inside
// Activate or Deactivate.
package targeting

import (
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/menu"
)

// MoveListener receives Mover events.
type MoveListener interface {
	// MoveStarted fires when the player grabs the destination marker.
	MoveStarted()
	// Moved fires after the unit has been placed at its new position.
	Moved(origin *menu.Entry)
	// TargetingCanceled fires when the player touches outside the accepted region.
	TargetingCanceled()
}

// AimListener receives Aim events.
type AimListener interface {
	// AimStarted fires when the player begins aiming.
	AimStarted()
	// Aimed fires with the unit under the aim point, or nil, and the aim point itself.
	Aimed(origin *menu.Entry, target *unit.Unit, pos geom.Vec2)
	// TargetingCanceled fires when the player touches outside the accepted region.
	TargetingCanceled()
}

// Mover picks a destination for the unit that owns origin.
type Mover interface {
	// Activate starts a session for origin's owner limited to reach pixels. A session
	// already in progress is replaced without notifying its listener.
	Activate(origin *menu.Entry, reach float64, l MoveListener)
	// Deactivate ends any session without notifying the listener.
	Deactivate()
	// Active reports whether a session is in progress.
	Active() bool
}

// Aim picks a target unit or position for the command behind origin.
type Aim interface {
	Activate(origin *menu.Entry, reach float64, l AimListener)
	Deactivate()
	Active() bool
}
