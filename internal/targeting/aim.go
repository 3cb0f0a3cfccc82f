package targeting

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/menu"
)

// UnitAim resolves the released aim point to the nearest living unit within hitRadius,
// or to no unit when the point is empty ground.
type UnitAim struct {
	logger    *zap.Logger
	t         tracker
	units     func() []*unit.Unit
	hitRadius float64
	subs      []input.Subscription
}

// NewUnitAim creates a UnitAim listening on hub. units is consulted on every release.
//
// Precondition: logger, hub and units must be non-nil; hitRadius > 0.
func NewUnitAim(logger *zap.Logger, hub *input.Hub, field geom.Rect, hitRadius float64, units func() []*unit.Unit) *UnitAim {
	a := &UnitAim{
		logger:    logger.Named("aim"),
		t:         tracker{field: field},
		units:     units,
		hitRadius: hitRadius,
	}
	a.subs = []input.Subscription{
		hub.OnCursorDown(a.cursorDown),
		hub.OnCursorUpdate(a.t.update),
		hub.OnCursorUp(a.cursorUp),
	}
	return a
}

// Activate implements Aim.
func (a *UnitAim) Activate(origin *menu.Entry, reach float64, l AimListener) {
	a.logger.Debug("activated",
		zap.String("command", origin.Label()),
		zap.Float64("reach", reach),
	)
	a.t.activate(origin, reach, l)
}

// Deactivate implements Aim.
func (a *UnitAim) Deactivate() { a.t.deactivate() }

// Active implements Aim.
func (a *UnitAim) Active() bool { return a.t.active() }

// Close unsubscribes from the hub.
func (a *UnitAim) Close() {
	for _, s := range a.subs {
		s.Cancel()
	}
}

// TargetAt returns the living unit closest to p within the hit radius, or nil.
func (a *UnitAim) TargetAt(p geom.Vec2) *unit.Unit {
	var best *unit.Unit
	bestDist := math.Inf(1)
	for _, u := range a.units() {
		if u.IsDead() {
			continue
		}
		d := u.Position().Distance(p)
		if d <= a.hitRadius && d < bestDist {
			best, bestDist = u, d
		}
	}
	return best
}

func (a *UnitAim) cursorDown(ev input.CursorEvent) {
	a.notify(a.t.down(ev), nil)
}

func (a *UnitAim) cursorUp(ev input.CursorEvent) {
	e := a.t.up(ev)
	var target *unit.Unit
	if e.outcome == outcomeCommitted {
		target = a.TargetAt(e.point)
	}
	a.notify(e, target)
}

func (a *UnitAim) notify(e event, target *unit.Unit) {
	l, ok := e.listener.(AimListener)
	if !ok {
		return
	}
	switch e.outcome {
	case outcomeStarted:
		l.AimStarted()
	case outcomeCommitted:
		a.logger.Debug("aimed",
			zap.String("command", e.origin.Label()),
			zap.Bool("has_target", target != nil),
		)
		l.Aimed(e.origin, target, e.point)
	case outcomeCanceled:
		a.logger.Debug("canceled")
		l.TargetingCanceled()
	}
}
