package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/taktiks/internal/game/dice"
)

type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func TestRollResult_TotalAndString(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, "2d6+3 [4 5] +3 = 12", r.String())
}

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		count int
		sides int
		mod   int
		kh    int
	}{
		{"d20", 1, 20, 0, 0},
		{"2d6", 2, 6, 0, 0},
		{"2d6+3", 2, 6, 3, 0},
		{"4d8-2", 4, 8, -2, 0},
		{"4d6kh3", 4, 6, 0, 3},
		{"4d6kh3+1", 4, 6, 1, 3},
		{"2D6 + 1", 2, 6, 1, 0},
		{"12", 0, 0, 12, 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			e, err := dice.Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.count, e.Count)
			assert.Equal(t, tc.sides, e.Sides)
			assert.Equal(t, tc.mod, e.Modifier)
			assert.Equal(t, tc.kh, e.KeepHighest)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "abc", "0d6", "2d1", "2d", "d6+", "3d6kh3", "3d6kh0"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParse_RejectsOversizedPools(t *testing.T) {
	cases := map[string]string{
		"99999999999999999999d6":   "invalid die count",
		"2d99999999999999999999":   "invalid die sides",
		"2d6+99999999999999999999": "invalid modifier",
		"101d6":                    "die count",
		"2d1001":                   "die sides",
	}
	for in, want := range cases {
		_, err := dice.Parse(in)
		require.Error(t, err, "input %q", in)
		assert.Contains(t, err.Error(), want)
	}

	e, err := dice.Parse("100d1000")
	require.NoError(t, err)
	assert.Equal(t, 100*1000, e.Max())
	assert.Len(t, dice.Roll(e, fixedSource{v: 0}).Dice, 100)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("bad") })
}

func TestRollKeepHighest(t *testing.T) {
	e := dice.MustParse("4d6kh2")
	r := dice.Roll(e, fixedSource{v: 2})
	assert.Equal(t, []int{3, 3}, r.Dice)
}

func TestRollConstant(t *testing.T) {
	r := dice.Roll(dice.MustParse("7"), dice.NewCryptoSource())
	assert.Empty(t, r.Dice)
	assert.Equal(t, 7, r.Total())
}

func TestCryptoSource_InRangeAndPanics(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 500; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	a, b := dice.NewSeededSource(42), dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestRollerLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewRoller(fixedSource{v: 0}, zap.New(core))
	res, err := r.RollExpr("2d4+1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total())
	require.Equal(t, 1, logs.FilterMessage("dice roll").Len())

	_, err = r.RollExpr("nope")
	assert.Error(t, err)

	res = r.Roll(dice.MustParse("3d6kh2-1"))
	assert.Equal(t, 1, res.Total())
	assert.Equal(t, 2, logs.FilterMessage("dice roll").Len())
}

func TestPropertyRollWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-10, 10).Draw(rt, "mod")
		e := dice.Expression{Raw: "x", Count: count, Sides: sides, Modifier: mod}
		total := dice.Roll(e, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))).Total()
		if total < e.Min() || total > e.Max() {
			rt.Fatalf("total %d outside [%d, %d]", total, e.Min(), e.Max())
		}
	})
}
