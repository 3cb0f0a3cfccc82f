// Package unit models the combat units on the field and their catalogs of attacks,
// skills and items.
package unit

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
)

// Attributes are a unit's fixed base statistics.
type Attributes struct {
	Strength  int
	Agility   int
	Vitality  int
	Magic     int
	Dexterity int
}

// Ranges are the reach distances, in pixels, of a unit's actions.
type Ranges struct {
	Move        float64
	ShortAttack float64
	LongAttack  float64
	Skill       float64
}

// Spec is everything needed to build a Unit.
type Spec struct {
	// ID is generated when zero.
	ID         uuid.UUID
	Name       string
	Seat       int
	Life       int
	Mana       int
	Attributes Attributes
	Ranges     Ranges
	Position   geom.Vec2
	Commands   []*Command
}

// Unit is one combatant. Its mutable status (life, mana, wait time, position and item
// stock) is guarded by mu and safe for concurrent use.
//
// Invariant: 0 <= Life() <= FullLife; 0 <= Mana() <= FullMana; 0 <= Time() <= 1.
type Unit struct {
	ID         uuid.UUID
	Name       string
	Seat       int
	FullLife   int
	FullMana   int
	Attributes Attributes
	Ranges     Ranges

	mu       sync.RWMutex
	life     int
	mana     int
	time     float64
	position geom.Vec2

	attacks []*Command
	skills  []*Command
	items   []*Command
}

// New builds a Unit and attaches every command in spec.Commands to it.
//
// Precondition: spec.Seat is 1 or 2; spec.Life > 0; spec.Mana >= 0; each command is
// unowned and has a valid Kind.
// Postcondition: Life() == FullLife, Mana() == FullMana, Time() == 0.
func New(spec Spec) (*Unit, error) {
	if spec.Seat != 1 && spec.Seat != 2 {
		return nil, fmt.Errorf("unit %q: seat must be 1 or 2, got %d", spec.Name, spec.Seat)
	}
	if spec.Life <= 0 {
		return nil, fmt.Errorf("unit %q: life must be > 0, got %d", spec.Name, spec.Life)
	}
	if spec.Mana < 0 {
		return nil, fmt.Errorf("unit %q: mana must be >= 0, got %d", spec.Name, spec.Mana)
	}
	id := spec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	u := &Unit{
		ID:         id,
		Name:       spec.Name,
		Seat:       spec.Seat,
		FullLife:   spec.Life,
		FullMana:   spec.Mana,
		Attributes: spec.Attributes,
		Ranges:     spec.Ranges,
		life:       spec.Life,
		mana:       spec.Mana,
		position:   spec.Position,
	}
	for _, c := range spec.Commands {
		if c.owner != nil {
			return nil, fmt.Errorf("unit %q: command %q already belongs to %q", spec.Name, c.Name, c.owner.Name)
		}
		c.owner = u
		switch c.Kind {
		case KindAttack:
			u.attacks = append(u.attacks, c)
		case KindSkill:
			u.skills = append(u.skills, c)
		case KindItem:
			u.items = append(u.items, c)
		default:
			return nil, fmt.Errorf("unit %q: command %q has invalid kind", spec.Name, c.Name)
		}
	}
	return u, nil
}

// Attacks returns the attack catalog in declaration order.
func (u *Unit) Attacks() []*Command { return append([]*Command(nil), u.attacks...) }

// Skills returns the skill catalog in declaration order.
func (u *Unit) Skills() []*Command { return append([]*Command(nil), u.skills...) }

// Items returns the item catalog in declaration order.
func (u *Unit) Items() []*Command { return append([]*Command(nil), u.items...) }

// Life returns current life.
func (u *Unit) Life() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.life
}

// Mana returns current mana.
func (u *Unit) Mana() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.mana
}

// Time returns the accumulated wait time in [0, 1].
func (u *Unit) Time() float64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.time
}

// Position returns the unit's position on the field.
func (u *Unit) Position() geom.Vec2 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.position
}

// IsDead reports whether life has reached zero.
func (u *Unit) IsDead() bool { return u.Life() <= 0 }

// IsWaiting reports whether the unit has not yet accumulated a full turn.
func (u *Unit) IsWaiting() bool { return u.Time() < 1 }

// SetPosition moves the unit.
func (u *Unit) SetPosition(p geom.Vec2) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.position = p
}

// SetTime sets the wait time, clamped to [0, 1]. Setting 0 ends the unit's turn.
func (u *Unit) SetTime(t float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.time = math.Max(0, math.Min(1, t))
}

// Tick advances the wait time by agility*scale*dt seconds. Dead units do not wait.
//
// Postcondition: Returns true iff this tick brought the unit from waiting to ready.
func (u *Unit) Tick(dt, scale float64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.life <= 0 || u.time >= 1 {
		return false
	}
	u.time = math.Min(1, u.time+float64(u.Attributes.Agility)*scale*dt)
	return u.time >= 1
}

// Damage removes up to n life.
//
// Postcondition: Returns the life actually removed.
func (u *Unit) Damage(n int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n <= 0 {
		return 0
	}
	taken := min(n, u.life)
	u.life -= taken
	if u.life == 0 {
		u.time = 0
	}
	return taken
}

// Heal restores up to n life without exceeding FullLife. Dead units cannot be healed.
//
// Postcondition: Returns the life actually restored.
func (u *Unit) Heal(n int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n <= 0 || u.life <= 0 {
		return 0
	}
	restored := min(n, u.FullLife-u.life)
	u.life += restored
	return restored
}

// String returns "Name(seat N)".
func (u *Unit) String() string {
	return fmt.Sprintf("%s(seat %d)", u.Name, u.Seat)
}
