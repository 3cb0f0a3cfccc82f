package unit

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by Consume when the command cannot currently be executed.
var ErrUnavailable = errors.New("unit: command unavailable")

// Kind tags the variant carried by a Command.
// The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota
	KindAttack
	KindSkill
	KindItem
)

// String returns "attack", "skill", "item" or "unknown".
func (k Kind) String() string {
	switch k {
	case KindAttack:
		return "attack"
	case KindSkill:
		return "skill"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// TargetMode says whether a command needs a target picked on the field.
type TargetMode int

const (
	// TargetSelf executes immediately against the owning unit's own position.
	TargetSelf TargetMode = iota
	// TargetPick hands control to the aim sub-mode before executing.
	TargetPick
)

// String returns "self" or "target".
func (m TargetMode) String() string {
	if m == TargetSelf {
		return "self"
	}
	return "target"
}

// ParseTargetMode maps "self" and "target" to a TargetMode.
func ParseTargetMode(s string) (TargetMode, error) {
	switch s {
	case "self":
		return TargetSelf, nil
	case "target", "":
		return TargetPick, nil
	default:
		return 0, fmt.Errorf("unit: unknown target mode %q", s)
	}
}

// AttackType selects the attack range and the attribute that scales it.
type AttackType int

const (
	// AttackShort is a melee attack scaled by strength.
	AttackShort AttackType = iota
	// AttackLong is a ranged attack scaled by dexterity.
	AttackLong
)

// String returns "short" or "long".
func (a AttackType) String() string {
	if a == AttackLong {
		return "long"
	}
	return "short"
}

// Effect says whether a skill or item hurts or heals its target.
type Effect int

const (
	EffectDamage Effect = iota
	EffectHeal
)

// String returns "damage" or "heal".
func (e Effect) String() string {
	if e == EffectHeal {
		return "heal"
	}
	return "damage"
}

// AttackSpec is the payload of an attack command.
type AttackSpec struct {
	Type AttackType
	// Power is a dice formula, for example "1d8+2".
	Power string
}

// SkillSpec is the payload of a skill command.
type SkillSpec struct {
	Mode   TargetMode
	Cost   int
	Power  string
	Effect Effect
	// Hook optionally names a Lua function that may rewrite the rolled amount.
	Hook string
}

// ItemSpec is the payload of an item command. Quantity is the starting stock.
type ItemSpec struct {
	Mode     TargetMode
	Quantity int
	Power    string
	Effect   Effect
	Hook     string
}

// Command is one entry of a unit's catalog: a tagged variant over attack, skill and
// item. Exactly one of Attack, Skill, Item is non-nil and matches Kind.
type Command struct {
	Kind   Kind
	Name   string
	Attack *AttackSpec
	Skill  *SkillSpec
	Item   *ItemSpec

	owner *Unit
	// quantity and blocked are guarded by owner.mu.
	quantity int
	blocked  bool
}

// NewAttack builds an attack command.
func NewAttack(name string, spec AttackSpec) *Command {
	return &Command{Kind: KindAttack, Name: name, Attack: &spec}
}

// NewSkill builds a skill command.
func NewSkill(name string, spec SkillSpec) *Command {
	return &Command{Kind: KindSkill, Name: name, Skill: &spec}
}

// NewItem builds an item command.
func NewItem(name string, spec ItemSpec) *Command {
	return &Command{Kind: KindItem, Name: name, Item: &spec, quantity: spec.Quantity}
}

// Owner returns the unit whose catalog holds the command.
func (c *Command) Owner() *Unit { return c.owner }

// TargetMode returns TargetPick for attacks and the configured mode for skills and items.
func (c *Command) TargetMode() TargetMode {
	switch c.Kind {
	case KindAttack:
		return TargetPick
	case KindSkill:
		return c.Skill.Mode
	case KindItem:
		return c.Item.Mode
	default:
		panic(fmt.Sprintf("unit: command %q has invalid kind %d", c.Name, int(c.Kind)))
	}
}

// Range returns how far from the owner the command may reach.
//
// Precondition: the command belongs to a unit.
func (c *Command) Range() float64 {
	r := c.owner.Ranges
	switch c.Kind {
	case KindAttack:
		if c.Attack.Type == AttackLong {
			return r.LongAttack
		}
		return r.ShortAttack
	case KindSkill, KindItem:
		return r.Skill
	default:
		panic(fmt.Sprintf("unit: command %q has invalid kind %d", c.Name, int(c.Kind)))
	}
}

// Power returns the dice formula of the variant.
func (c *Command) Power() string {
	switch c.Kind {
	case KindAttack:
		return c.Attack.Power
	case KindSkill:
		return c.Skill.Power
	case KindItem:
		return c.Item.Power
	default:
		return ""
	}
}

// Effect returns EffectDamage for attacks and the configured effect otherwise.
func (c *Command) Effect() Effect {
	switch c.Kind {
	case KindSkill:
		return c.Skill.Effect
	case KindItem:
		return c.Item.Effect
	default:
		return EffectDamage
	}
}

// Hook returns the Lua hook name, or "" when the command has none.
func (c *Command) Hook() string {
	switch c.Kind {
	case KindSkill:
		return c.Skill.Hook
	case KindItem:
		return c.Item.Hook
	default:
		return ""
	}
}

// Quantity returns the remaining stock of an item; 0 for other kinds.
func (c *Command) Quantity() int {
	if c.Kind != KindItem || c.owner == nil {
		return 0
	}
	c.owner.mu.RLock()
	defer c.owner.mu.RUnlock()
	return c.quantity
}

// SetBlocked disables or re-enables the command regardless of resources, for status
// effects such as silence.
func (c *Command) SetBlocked(blocked bool) {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.blocked = blocked
}

// Enabled reports whether the command may be executed now: the owner is alive, the
// command is not blocked, and a skill's mana cost or an item's stock is available.
func (c *Command) Enabled() bool {
	if c.owner == nil {
		return false
	}
	c.owner.mu.RLock()
	defer c.owner.mu.RUnlock()
	return c.enabledLocked()
}

func (c *Command) enabledLocked() bool {
	if c.blocked || c.owner.life <= 0 {
		return false
	}
	switch c.Kind {
	case KindAttack:
		return true
	case KindSkill:
		return c.owner.mana >= c.Skill.Cost
	case KindItem:
		return c.quantity > 0
	default:
		return false
	}
}

// Consume re-checks availability and pays the command's cost atomically: mana for a
// skill, one unit of stock for an item, nothing for an attack.
//
// Postcondition: Returns ErrUnavailable and changes nothing if the command is disabled.
func (c *Command) Consume() error {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	if !c.enabledLocked() {
		return fmt.Errorf("%s %q: %w", c.Kind, c.Name, ErrUnavailable)
	}
	switch c.Kind {
	case KindSkill:
		c.owner.mana -= c.Skill.Cost
	case KindItem:
		c.quantity--
	}
	return nil
}
