package targeting

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/menu"
)

// AreaMover moves a unit to any point of the field within its move range. The player
// presses inside the range, may drag, and releases on the destination.
type AreaMover struct {
	logger *zap.Logger
	t      tracker
	subs   []input.Subscription
}

// NewAreaMover creates an AreaMover listening on hub. Touches outside field are never
// accepted.
//
// Precondition: logger and hub must be non-nil.
// Postcondition: The mover is inactive until Activate is called.
func NewAreaMover(logger *zap.Logger, hub *input.Hub, field geom.Rect) *AreaMover {
	m := &AreaMover{logger: logger.Named("mover"), t: tracker{field: field}}
	m.subs = []input.Subscription{
		hub.OnCursorDown(m.cursorDown),
		hub.OnCursorUpdate(m.t.update),
		hub.OnCursorUp(m.cursorUp),
	}
	return m
}

// Activate implements Mover.
func (m *AreaMover) Activate(origin *menu.Entry, reach float64, l MoveListener) {
	m.logger.Debug("activated",
		zap.String("unit", origin.Owner().Name),
		zap.Float64("reach", reach),
	)
	m.t.activate(origin, reach, l)
}

// Deactivate implements Mover.
func (m *AreaMover) Deactivate() { m.t.deactivate() }

// Active implements Mover.
func (m *AreaMover) Active() bool { return m.t.active() }

// Close unsubscribes from the hub.
func (m *AreaMover) Close() {
	for _, s := range m.subs {
		s.Cancel()
	}
}

func (m *AreaMover) cursorDown(ev input.CursorEvent) {
	m.notify(m.t.down(ev))
}

func (m *AreaMover) cursorUp(ev input.CursorEvent) {
	e := m.t.up(ev)
	if e.outcome == outcomeCommitted {
		owner := e.origin.Owner()
		owner.SetPosition(e.point)
		m.logger.Debug("moved",
			zap.String("unit", owner.Name),
			zap.Float64("x", e.point.X),
			zap.Float64("y", e.point.Y),
		)
	}
	m.notify(e)
}

func (m *AreaMover) notify(e event) {
	l, ok := e.listener.(MoveListener)
	if !ok {
		return
	}
	switch e.outcome {
	case outcomeStarted:
		l.MoveStarted()
	case outcomeCommitted:
		l.Moved(e.origin)
	case outcomeCanceled:
		m.logger.Debug("canceled")
		l.TargetingCanceled()
	}
}
