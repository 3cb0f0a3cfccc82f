// Package battle runs a two-seat skirmish: it advances every unit's wait time, hands the
// input to the acting unit's action manager, and ends the turn once that unit has spent
// its time.
package battle

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/game/action"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/menu"
	"github.com/cory-johannsen/taktiks/internal/observability"
	"github.com/cory-johannsen/taktiks/internal/targeting"
)

// ErrNoOpponent is returned when a seat has no units.
var ErrNoOpponent = errors.New("battle needs at least one unit per seat")

// AimHitRadius is how close to a unit's position an aim release must land to target it.
const AimHitRadius = 32

// Battle owns the units, their managers, and the shared targeting sub-modes.
type Battle struct {
	logger    *zap.Logger
	timeScale float64
	mover     *targeting.AreaMover
	aim       *targeting.UnitAim
	units     []*unit.Unit
	managers  []*action.Manager

	mu     sync.Mutex
	acting int
	winner int
	turns  int

	// noticeMu is taken last; nothing else is locked while holding it.
	noticeMu sync.Mutex
	notices  []Notice
	resolved int
}

// New wires one action manager per unit. Seat 1 menus sit on the left edge of the
// screen and seat 2 menus on the right; the targeting field is the strip between them.
//
// Precondition: logger, pool, hub and exec must be non-nil; cfg must be valid.
// Postcondition: No unit is acting and every manager is disabled.
func New(logger *zap.Logger, cfg config.Config, pool *dispatch.Pool, hub *input.Hub, exec action.Executor, units []*unit.Unit) (*Battle, error) {
	seats := map[int]int{}
	for _, u := range units {
		seats[u.Seat]++
	}
	if seats[1] == 0 || seats[2] == 0 {
		return nil, fmt.Errorf("%w: seat 1 has %d, seat 2 has %d", ErrNoOpponent, seats[1], seats[2])
	}

	w, h := float64(cfg.Display.Width), float64(cfg.Display.Height)
	field := geom.R(cfg.Menu.ItemWidth, 0, w-2*cfg.Menu.ItemWidth, h)
	b := &Battle{
		logger:    logger.Named("battle"),
		timeScale: cfg.Battle.TimeScale,
		units:     append([]*unit.Unit(nil), units...),
		acting:    -1,
	}
	b.mover = targeting.NewAreaMover(logger, hub, field)
	b.aim = targeting.NewUnitAim(logger, hub, field, AimHitRadius, b.Units)

	deps := action.Deps{Hub: hub, Pool: pool, Mover: b.mover, Aim: b.aim, Executor: exec}
	for _, u := range b.units {
		layout := menu.Layout{
			Origin:       geom.V(cfg.Menu.OriginX(u.Seat, cfg.Display.Width), cfg.Menu.BaseY),
			RowHeight:    cfg.Menu.RowHeight,
			ItemWidth:    cfg.Menu.ItemWidth,
			ScreenHeight: h,
			PanelTop:     cfg.Menu.PanelTop,
		}
		b.managers = append(b.managers, action.NewManager(logger, u, layout, deps))
	}
	b.logger.Info("battle ready",
		zap.Int("seat1", seats[1]),
		zap.Int("seat2", seats[2]),
	)
	return b, nil
}

// Units returns every unit, living or dead.
func (b *Battle) Units() []*unit.Unit { return append([]*unit.Unit(nil), b.units...) }

// Acting returns the unit whose turn it is, or nil between turns.
func (b *Battle) Acting() *unit.Unit {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.acting < 0 {
		return nil
	}
	return b.units[b.acting]
}

// Manager returns the action manager of u, or nil if u is not in the battle.
func (b *Battle) Manager(u *unit.Unit) *action.Manager {
	for i, v := range b.units {
		if v == u {
			return b.managers[i]
		}
	}
	return nil
}

// Winner returns the seat that has defeated the other, or 0 while both stand.
func (b *Battle) Winner() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.winner
}

// Turns returns how many turns have started.
func (b *Battle) Turns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.turns
}

// Tick advances the battle by dt seconds: it ages notices, closes a finished turn, checks
// for a winner, advances wait times, and opens the next turn.
func (b *Battle) Tick(dt float64) {
	b.ageNotices(dt)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.acting >= 0 {
		u := b.units[b.acting]
		if !u.IsWaiting() && !u.IsDead() {
			b.managers[b.acting].Update()
			return
		}
		b.endTurnLocked()
	}
	if b.winner != 0 {
		return
	}
	if w := b.survivorLocked(); w != 0 {
		b.winner = w
		b.logger.Info("battle won", zap.Int("seat", w), zap.Int("turns", b.turns))
		return
	}
	for _, u := range b.units {
		u.Tick(dt, b.timeScale)
	}
	next, best := -1, 0.0
	for i, u := range b.units {
		if u.IsDead() || u.IsWaiting() {
			continue
		}
		if t := u.Time(); next < 0 || t > best {
			next, best = i, t
		}
	}
	if next >= 0 {
		b.startTurnLocked(next)
	}
}

// Draw paints the acting unit's menu.
func (b *Battle) Draw(c action.Canvas) {
	b.mu.Lock()
	acting := b.acting
	b.mu.Unlock()
	if acting >= 0 {
		b.managers[acting].Draw(c)
	}
}

// Close unsubscribes every manager and sub-mode from the hub.
func (b *Battle) Close() {
	for _, m := range b.managers {
		m.Close()
	}
	b.mover.Close()
	b.aim.Close()
}

func (b *Battle) startTurnLocked(i int) {
	b.acting = i
	b.turns++
	b.managers[i].Reset()
	b.managers[i].Enable()
	u := b.units[i]
	observability.Component(b.logger, "turn", u.Seat).Info("turn started",
		zap.String("unit", u.Name),
		zap.Int("turn", b.turns),
	)
}

func (b *Battle) endTurnLocked() {
	m := b.managers[b.acting]
	m.Disable()
	m.Reset()
	u := b.units[b.acting]
	u.SetTime(0)
	b.logger.Debug("turn ended", zap.String("unit", u.Name))
	b.acting = -1
}

func (b *Battle) survivorLocked() int {
	alive := map[int]bool{}
	for _, u := range b.units {
		if !u.IsDead() {
			alive[u.Seat] = true
		}
	}
	switch {
	case alive[1] && !alive[2]:
		return 1
	case alive[2] && !alive[1]:
		return 2
	default:
		return 0
	}
}
