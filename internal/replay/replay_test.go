package replay_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/taktiks/internal/battle"
	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/game/dice"
	"github.com/cory-johannsen/taktiks/internal/game/effect"
	"github.com/cory-johannsen/taktiks/internal/game/geom"
	"github.com/cory-johannsen/taktiks/internal/game/roster"
	"github.com/cory-johannsen/taktiks/internal/game/unit"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/replay"
	"github.com/cory-johannsen/taktiks/internal/scripting"
)

var contentDir = filepath.Join("..", "..", "content")

func TestParse(t *testing.T) {
	s, err := replay.Parse([]byte(`
name: short
steps:
  - {action: wait, frames: 3}
  - {action: tap, cursor: 2, x: 10, y: 20}
expect: {winner: 1}
`))
	require.NoError(t, err)
	assert.Equal(t, "short", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, replay.ActionTap, s.Steps[1].Action)
	assert.Equal(t, geom.V(10, 20), s.Steps[1].Point())
	assert.Equal(t, 1, s.Expect.Winner)
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown action":  `steps: [{action: jump}]`,
		"wait no frames":  `steps: [{action: wait}]`,
		"negative cursor": `steps: [{action: down, cursor: -1}]`,
		"bad yaml":        `steps: [`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := replay.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := replay.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

type rig struct {
	pool   *dispatch.Pool
	units  []*unit.Unit
	runner *replay.Runner
}

func newRig(t *testing.T) *rig {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := config.Default()

	units, err := roster.LoadDir(filepath.Join(contentDir, "units"))
	require.NoError(t, err)
	roller := dice.NewRoller(dice.NewSeededSource(42), logger)
	scripts := scripting.NewManager(roller, logger, cfg.Content.InstructionLimit)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.LoadDir(filepath.Join(contentDir, "scripts")))

	pool := dispatch.New(logger, cfg.Input.Workers, cfg.Input.QueueSize)
	require.NoError(t, pool.Start())
	t.Cleanup(func() { _ = pool.Stop(context.Background()) })
	hub := input.NewHub(logger, pool)

	resolver := effect.NewResolver(logger, roller, scripts)
	b, err := battle.New(logger, cfg, pool, hub, resolver, units)
	require.NoError(t, err)
	resolver.OnResolved(b.Record)
	t.Cleanup(b.Close)
	return &rig{
		pool:   pool,
		units:  units,
		runner: replay.NewRunner(logger, b, hub, pool, cfg.Battle.TickRate, 0),
	}
}

func (r *rig) unit(name string) *unit.Unit {
	for _, u := range r.units {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func TestRun_BundledDemo(t *testing.T) {
	r := newRig(t)
	s, err := replay.Load(filepath.Join(contentDir, "replays", "demo.yaml"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := r.runner.Run(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, 201, res.Frames)
	assert.Equal(t, 2, res.Turns)
	assert.Equal(t, 1, res.Resolved, "the move is not a resolved command; the axe throw is")
	assert.Zero(t, res.Winner)

	knight := r.unit("Knight")
	require.NotNil(t, knight)
	assert.Equal(t, geom.V(480, 400), knight.Position())
	assert.Less(t, knight.Life(), knight.FullLife)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	r := newRig(t)
	s := replay.Script{
		Name:   "mismatch",
		Steps:  []replay.Step{{Action: replay.ActionWait, Frames: 1}},
		Expect: replay.Expect{Turns: 5},
	}
	_, err := r.runner.Run(context.Background(), s)
	assert.ErrorIs(t, err, replay.ErrExpectation)
}

func TestRun_CanceledContextStops(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.runner.Run(ctx, replay.Script{Steps: []replay.Step{{Action: replay.ActionWait, Frames: 10}}})
	assert.ErrorIs(t, err, context.Canceled)
}
