package unit_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
)

func knight(t *testing.T) *unit.Unit {
	t.Helper()
	u, err := unit.New(unit.Spec{
		Name: "Knight",
		Seat: 1,
		Life: 100,
		Mana: 20,
		Attributes: unit.Attributes{Strength: 8, Agility: 4, Magic: 2, Dexterity: 3},
		Ranges:     unit.Ranges{Move: 120, ShortAttack: 40, LongAttack: 200, Skill: 150},
		Position:   geom.V(300, 300),
		Commands: []*unit.Command{
			unit.NewAttack("Slash", unit.AttackSpec{Type: unit.AttackShort, Power: "1d8"}),
			unit.NewAttack("Throw", unit.AttackSpec{Type: unit.AttackLong, Power: "1d4"}),
			unit.NewSkill("Focus", unit.SkillSpec{Mode: unit.TargetSelf, Cost: 15, Power: "5", Effect: unit.EffectHeal}),
			unit.NewItem("Potion", unit.ItemSpec{Mode: unit.TargetSelf, Quantity: 1, Power: "20", Effect: unit.EffectHeal}),
		},
	})
	require.NoError(t, err)
	return u
}

func TestNew_SortsCatalogAndAssignsID(t *testing.T) {
	u := knight(t)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Len(t, u.Attacks(), 2)
	assert.Len(t, u.Skills(), 1)
	assert.Len(t, u.Items(), 1)
	assert.Same(t, u, u.Attacks()[0].Owner())
	assert.Equal(t, "Knight(seat 1)", u.String())
}

func TestNew_Validation(t *testing.T) {
	_, err := unit.New(unit.Spec{Name: "x", Seat: 3, Life: 1})
	assert.Error(t, err)
	_, err = unit.New(unit.Spec{Name: "x", Seat: 1, Life: 0})
	assert.Error(t, err)
	_, err = unit.New(unit.Spec{Name: "x", Seat: 1, Life: 1, Mana: -1})
	assert.Error(t, err)
	_, err = unit.New(unit.Spec{Name: "x", Seat: 1, Life: 1, Commands: []*unit.Command{{Name: "bad"}}})
	assert.Error(t, err)
}

func TestNew_RejectsSharedCommand(t *testing.T) {
	c := unit.NewAttack("Slash", unit.AttackSpec{Power: "1d4"})
	_, err := unit.New(unit.Spec{Name: "a", Seat: 1, Life: 1, Commands: []*unit.Command{c}})
	require.NoError(t, err)
	_, err = unit.New(unit.Spec{Name: "b", Seat: 2, Life: 1, Commands: []*unit.Command{c}})
	assert.Error(t, err)
}

func TestCommandRangesAndModes(t *testing.T) {
	u := knight(t)
	slash, throw := u.Attacks()[0], u.Attacks()[1]
	assert.Equal(t, 40.0, slash.Range())
	assert.Equal(t, 200.0, throw.Range())
	assert.Equal(t, unit.TargetPick, slash.TargetMode())
	assert.Equal(t, 150.0, u.Skills()[0].Range())
	assert.Equal(t, unit.TargetSelf, u.Skills()[0].TargetMode())
	assert.Equal(t, unit.EffectHeal, u.Items()[0].Effect())
	assert.Equal(t, unit.EffectDamage, slash.Effect())
}

func TestSkillEnabledByMana(t *testing.T) {
	u := knight(t)
	focus := u.Skills()[0]
	assert.True(t, focus.Enabled())
	require.NoError(t, focus.Consume())
	assert.Equal(t, 5, u.Mana())
	assert.False(t, focus.Enabled())
	err := focus.Consume()
	assert.True(t, errors.Is(err, unit.ErrUnavailable))
	assert.Equal(t, 5, u.Mana(), "failed consume changes nothing")
}

func TestItemEnabledByQuantity(t *testing.T) {
	u := knight(t)
	potion := u.Items()[0]
	assert.Equal(t, 1, potion.Quantity())
	require.NoError(t, potion.Consume())
	assert.Equal(t, 0, potion.Quantity())
	assert.False(t, potion.Enabled())
}

func TestBlockedAndDeadDisableEverything(t *testing.T) {
	u := knight(t)
	slash := u.Attacks()[0]
	slash.SetBlocked(true)
	assert.False(t, slash.Enabled())
	slash.SetBlocked(false)
	assert.True(t, slash.Enabled())

	u.Damage(1000)
	assert.True(t, u.IsDead())
	assert.False(t, slash.Enabled())
	assert.Equal(t, 0, u.Heal(10), "dead units cannot be healed")
}

func TestDamageAndHealClamp(t *testing.T) {
	u := knight(t)
	assert.Equal(t, 30, u.Damage(30))
	assert.Equal(t, 30, u.Heal(50))
	assert.Equal(t, 100, u.Life())
	assert.Equal(t, 0, u.Damage(-5))
}

func TestTickAndTime(t *testing.T) {
	u := knight(t)
	assert.True(t, u.IsWaiting())
	assert.False(t, u.Tick(1, 0.1))
	assert.InDelta(t, 0.4, u.Time(), 1e-9)
	assert.True(t, u.Tick(2, 0.1))
	assert.Equal(t, 1.0, u.Time())
	assert.False(t, u.IsWaiting())
	assert.False(t, u.Tick(1, 0.1), "ready units stay ready")
	u.SetTime(0)
	assert.True(t, u.IsWaiting())
	u.SetTime(5)
	assert.Equal(t, 1.0, u.Time())
}

func TestParseTargetMode(t *testing.T) {
	m, err := unit.ParseTargetMode("self")
	require.NoError(t, err)
	assert.Equal(t, unit.TargetSelf, m)
	m, err = unit.ParseTargetMode("")
	require.NoError(t, err)
	assert.Equal(t, unit.TargetPick, m)
	_, err = unit.ParseTargetMode("area")
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "attack", unit.KindAttack.String())
	assert.Equal(t, "skill", unit.KindSkill.String())
	assert.Equal(t, "item", unit.KindItem.String())
	assert.Equal(t, "unknown", unit.KindUnknown.String())
}

func TestPropertyLifeStaysInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		full := rapid.IntRange(1, 500).Draw(rt, "full")
		u, err := unit.New(unit.Spec{Name: "p", Seat: 2, Life: full})
		if err != nil {
			rt.Fatal(err)
		}
		ops := rapid.SliceOf(rapid.IntRange(-200, 200)).Draw(rt, "ops")
		for _, op := range ops {
			if op < 0 {
				u.Damage(-op)
			} else {
				u.Heal(op)
			}
			if l := u.Life(); l < 0 || l > full {
				rt.Fatalf("life %d outside [0, %d]", l, full)
			}
		}
	})
}
