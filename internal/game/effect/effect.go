// Package effect resolves an executed command into damage or healing on its target.
package effect

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/game/dice"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/scripting"
)

// Outcome records one resolved command.
type Outcome struct {
	Command  string
	Kind     unit.Kind
	Effect   unit.Effect
	Actor    *unit.Unit
	Target   *unit.Unit
	Position geom.Vec2
	Roll     dice.RollResult
	// Amount is the final amount after attribute bonus and script hook.
	Amount int
	// Applied is the life actually removed or restored.
	Applied int
	// Missed is true when no unit stood at the aim point.
	Missed bool
}

// Resolver executes commands: it pays the command's cost, rolls its power, adds the
// actor's attribute bonus, lets an optional Lua hook rewrite the amount, then applies
// damage or healing.
type Resolver struct {
	logger  *zap.Logger
	roller  *dice.Roller
	scripts *scripting.Manager

	mu        sync.RWMutex
	observers []func(Outcome)
}

// NewResolver creates a Resolver. scripts may be nil, in which case hooks are skipped.
//
// Precondition: logger and roller must be non-nil.
func NewResolver(logger *zap.Logger, roller *dice.Roller, scripts *scripting.Manager) *Resolver {
	return &Resolver{logger: logger.Named("effect"), roller: roller, scripts: scripts}
}

// OnResolved registers fn to receive every successful Outcome.
func (r *Resolver) OnResolved(fn func(Outcome)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Execute resolves cmd and discards the Outcome.
func (r *Resolver) Execute(cmd *unit.Command, actor, target *unit.Unit, pos geom.Vec2) error {
	_, err := r.Resolve(cmd, actor, target, pos)
	return err
}

// Resolve executes cmd by actor against target, which may be nil, at pos.
//
// Precondition: cmd and actor must be non-nil.
// Postcondition: On error nothing was paid or applied; unit.ErrUnavailable is wrapped
// when the command was disabled.
func (r *Resolver) Resolve(cmd *unit.Command, actor, target *unit.Unit, pos geom.Vec2) (Outcome, error) {
	if cmd == nil || actor == nil {
		return Outcome{}, errors.New("effect: command and actor are required")
	}
	expr, err := dice.Parse(cmd.Power())
	if err != nil {
		return Outcome{}, fmt.Errorf("effect: %s %q power: %w", cmd.Kind, cmd.Name, err)
	}
	if err := cmd.Consume(); err != nil {
		return Outcome{}, fmt.Errorf("effect: %w", err)
	}
	roll := r.roller.Roll(expr)

	out := Outcome{
		Command:  cmd.Name,
		Kind:     cmd.Kind,
		Effect:   cmd.Effect(),
		Actor:    actor,
		Target:   target,
		Position: pos,
		Roll:     roll,
		Amount:   max(0, roll.Total()+Bonus(cmd, actor)),
	}

	if hook := cmd.Hook(); hook != "" && r.scripts != nil {
		if n, ok := r.scripts.ResolveAmount(scripting.HookCall{
			Hook:    hook,
			Command: cmd.Name,
			Actor:   Snapshot(actor),
			Target:  Snapshot(target),
			Amount:  out.Amount,
		}); ok {
			out.Amount = max(0, n)
		}
	}

	switch {
	case target == nil:
		out.Missed = true
	case out.Effect == unit.EffectHeal:
		out.Applied = target.Heal(out.Amount)
	default:
		out.Applied = target.Damage(out.Amount)
	}

	r.logger.Info("command resolved",
		zap.String("actor", actor.Name),
		zap.String("command", cmd.Name),
		zap.Stringer("kind", cmd.Kind),
		zap.Stringer("effect", out.Effect),
		zap.String("roll", roll.String()),
		zap.Int("amount", out.Amount),
		zap.Int("applied", out.Applied),
		zap.Bool("missed", out.Missed),
	)

	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	for _, fn := range observers {
		fn(out)
	}
	return out, nil
}

// Bonus is the attribute added to a command's rolled power: strength for short attacks,
// dexterity for long attacks, magic for skills, nothing for items.
func Bonus(cmd *unit.Command, actor *unit.Unit) int {
	switch cmd.Kind {
	case unit.KindAttack:
		if cmd.Attack.Type == unit.AttackLong {
			return actor.Attributes.Dexterity
		}
		return actor.Attributes.Strength
	case unit.KindSkill:
		return actor.Attributes.Magic
	case unit.KindItem:
		return 0
	default:
		return 0
	}
}

// Snapshot converts u for a Lua hook; nil stays nil.
func Snapshot(u *unit.Unit) *scripting.UnitInfo {
	if u == nil {
		return nil
	}
	return &scripting.UnitInfo{
		ID:        u.ID.String(),
		Name:      u.Name,
		Seat:      u.Seat,
		Life:      u.Life(),
		FullLife:  u.FullLife,
		Mana:      u.Mana(),
		FullMana:  u.FullMana,
		Strength:  u.Attributes.Strength,
		Agility:   u.Attributes.Agility,
		Vitality:  u.Attributes.Vitality,
		Magic:     u.Attributes.Magic,
		Dexterity: u.Attributes.Dexterity,
	}
}
