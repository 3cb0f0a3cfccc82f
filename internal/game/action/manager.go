// Package action owns one unit's command menu and turns touches into commands.
//
// A Manager receives cursor-down events from the input hub, hit-tests them against its
// menu, and walks an explicit state machine: Idle, GroupSelected and Targeting. Moving
// and aiming are delegated to a Mover and an Aim; once either has started a session the
// menu is frozen until the session commits or cancels.
package action

import (
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/menu"
	"github.com/cory-johannsen/taktiks/internal/targeting"
)

// Executor carries out a chosen command. target is nil for aimed commands released on
// empty ground.
type Executor interface {
	Execute(cmd *unit.Command, actor, target *unit.Unit, pos geom.Vec2) error
}

// Deps are the collaborators a Manager is wired to.
type Deps struct {
	Hub      *input.Hub
	Pool     *dispatch.Pool
	Mover    targeting.Mover
	Aim      targeting.Aim
	Executor Executor
}

// Manager is the selection controller for one unit.
type Manager struct {
	logger   *zap.Logger
	unit     *unit.Unit
	pool     *dispatch.Pool
	mover    targeting.Mover
	aim      targeting.Aim
	executor Executor
	sub      input.Subscription

	mu        sync.Mutex
	menu      *menu.Menu
	machine   *fsm.FSM
	frozen    bool
	enabled   bool
	relayouts uint64
}

// NewManager builds the menu for u and subscribes to cursor-down events on deps.Hub.
//
// Precondition: logger, u and every field of deps must be non-nil.
// Postcondition: The manager is Idle, unfrozen and disabled.
func NewManager(logger *zap.Logger, u *unit.Unit, layout menu.Layout, deps Deps) *Manager {
	m := &Manager{
		logger:   logger.Named("action").With(zap.String("unit", u.Name), zap.Int("seat", u.Seat)),
		unit:     u,
		pool:     deps.Pool,
		mover:    deps.Mover,
		aim:      deps.Aim,
		executor: deps.Executor,
		menu:     menu.New(u, layout),
		machine:  newMachine(),
	}
	m.sub = deps.Hub.OnCursorDown(m.CursorDown)
	return m
}

// Unit returns the unit the manager commands.
func (m *Manager) Unit() *unit.Unit { return m.unit }

// State returns the current controller state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State(m.machine.Current())
}

// Frozen reports whether a targeting session owns input.
func (m *Manager) Frozen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frozen
}

// Changed reports whether the menu layout must be recomputed.
func (m *Manager) Changed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.menu.Dirty()
}

// Relayouts returns how many times row positions have been recomputed.
func (m *Manager) Relayouts() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relayouts
}

// Selection returns the expanded group and the armed leaf; either may be nil.
func (m *Manager) Selection() (*menu.Group, *menu.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.menu.Expanded(), m.menu.Armed()
}

// Rows relayouts if needed and returns the visible rows top to bottom.
func (m *Manager) Rows() []*menu.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayoutLocked()
	return m.menu.Rows()
}

// Enable lets touches reach the menu.
func (m *Manager) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Disable makes the manager ignore touches. Selection is left as is.
func (m *Manager) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enabled reports whether touches reach the menu.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Reset collapses the menu, unfreezes, and deactivates any sub-mode.
//
// Postcondition: State() == StateIdle; Frozen() == false.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Update recomputes the layout if a selection change made it stale.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayoutLocked()
}

// Close unsubscribes from the hub and resets.
func (m *Manager) Close() {
	m.sub.Cancel()
	m.Reset()
}

// CursorDown handles a touch. While disabled or frozen the touch is ignored without
// relayout. Touches outside the menu bounds are left to the active sub-mode.
//
// CursorDown runs on a pool worker, so the chosen notification is deferred rather than
// submitted: waiting for queue space here would wait on this worker.
func (m *Manager) CursorDown(ev input.CursorEvent) {
	chosen := m.touch(ev)
	if chosen == nil {
		return
	}
	if err := m.pool.Defer(func() { m.chosen(chosen) }); err != nil {
		m.logger.Warn("dropping chosen notification", zap.Error(err))
	}
}

func (m *Manager) touch(ev input.CursorEvent) *menu.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || m.frozen {
		return nil
	}
	if !m.menu.Bounds().Contains(ev.Position) {
		return nil
	}
	m.relayoutLocked()
	e := m.menu.HitTest(ev.Position).Entry
	if e != nil && !e.Enabled() {
		return nil
	}
	m.deactivatePendingLocked()
	if e == nil {
		return nil
	}
	if e.IsHeader() {
		if e.Selected() {
			m.menu.Collapse()
			m.fireLocked(eventCollapse)
			return nil
		}
		m.menu.Expand(e.Group())
		m.fireLocked(eventExpand)
		return e
	}
	if e.Selected() {
		m.menu.Disarm()
		return nil
	}
	m.menu.Arm(e)
	return e
}

// chosen runs once the selection of e has been confirmed. It is delivered through the
// pool so a sub-mode never activates inside the touch that selected it.
func (m *Manager) chosen(e *menu.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen || !e.Selected() {
		return
	}
	if e.IsHeader() {
		if e.Category() == menu.CategoryMove {
			m.mover.Activate(e, m.unit.Ranges.Move, m)
		}
		return
	}
	cmd := e.Command()
	if !cmd.Enabled() {
		m.logger.Debug("chosen command no longer available", zap.String("command", cmd.Name))
		m.resetLocked()
		return
	}
	if cmd.TargetMode() == unit.TargetSelf {
		m.executeLocked(cmd, m.unit, m.unit.Position())
		m.resetLocked()
		return
	}
	m.aim.Activate(e, cmd.Range(), m)
}

// MoveStarted implements targeting.MoveListener.
func (m *Manager) MoveStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freezeLocked(m.mover.Deactivate)
}

// Moved implements targeting.MoveListener.
func (m *Manager) Moved(origin *menu.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.frozen {
		return
	}
	p := m.unit.Position()
	m.logger.Info("unit moved", zap.Float64("x", p.X), zap.Float64("y", p.Y))
	m.unit.SetTime(0)
	m.resetLocked()
}

// AimStarted implements targeting.AimListener.
func (m *Manager) AimStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freezeLocked(m.aim.Deactivate)
}

// Aimed implements targeting.AimListener.
func (m *Manager) Aimed(origin *menu.Entry, target *unit.Unit, pos geom.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.frozen {
		return
	}
	cmd := origin.Command()
	if cmd != nil && cmd.Enabled() {
		m.executeLocked(cmd, target, pos)
	} else {
		m.logger.Debug("aimed command no longer available", zap.String("command", origin.Label()))
	}
	m.resetLocked()
}

// TargetingCanceled implements targeting.MoveListener and targeting.AimListener.
func (m *Manager) TargetingCanceled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Debug("targeting canceled")
	m.resetLocked()
}

func (m *Manager) freezeLocked(abandon func()) {
	if State(m.machine.Current()) != StateGroupSelected {
		abandon()
		return
	}
	m.frozen = true
	m.fireLocked(eventFreeze)
}

func (m *Manager) executeLocked(cmd *unit.Command, target *unit.Unit, pos geom.Vec2) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("command panicked", zap.String("command", cmd.Name), zap.Any("panic", r))
		}
	}()
	if err := m.executor.Execute(cmd, m.unit, target, pos); err != nil {
		m.logger.Warn("command failed", zap.String("command", cmd.Name), zap.Error(err))
		return
	}
	m.unit.SetTime(0)
}

func (m *Manager) resetLocked() {
	m.mover.Deactivate()
	m.aim.Deactivate()
	m.menu.Collapse()
	m.frozen = false
	m.fireLocked(eventReset)
}

// deactivatePendingLocked drops a sub-mode that was activated but has not started.
func (m *Manager) deactivatePendingLocked() {
	if m.mover.Active() {
		m.mover.Deactivate()
		m.menu.MarkDirty()
	}
	if m.aim.Active() {
		m.aim.Deactivate()
		m.menu.MarkDirty()
	}
}

func (m *Manager) relayoutLocked() {
	if m.menu.Relayout() {
		m.relayouts++
	}
}

func (m *Manager) fireLocked(event string) {
	if err := fire(m.machine, event); err != nil {
		m.logger.Error("invalid transition",
			zap.String("event", event),
			zap.String("state", m.machine.Current()),
			zap.Error(err),
		)
	}
}
