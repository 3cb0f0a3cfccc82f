// Package app assembles a battle from configuration: content, scripts, the input
// pipeline and the battle itself.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/battle"
	"github.com/cory-johannsen/taktiks/internal/config"
	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/game/dice"
	"github.com/cory-johannsen/taktiks/internal/game/effect"
	"github.com/cory-johannsen/taktiks/internal/game/roster"
	"github.com/cory-johannsen/taktiks/internal/input"
	"github.com/cory-johannsen/taktiks/internal/scripting"
)

// StopTimeout bounds how long Close waits for queued input to drain.
const StopTimeout = 2 * time.Second

// App holds the wired components of one battle.
type App struct {
	Logger   *zap.Logger
	Config   config.Config
	Pool     *dispatch.Pool
	Hub      *input.Hub
	Scripts  *scripting.Manager
	Resolver *effect.Resolver
	Battle   *battle.Battle
}

// Options tune Build.
type Options struct {
	// Seed selects a deterministic dice source when non-zero; zero uses crypto/rand.
	Seed uint64
}

// Build loads content and wires every component. The dispatch pool is not started.
//
// Precondition: logger must be non-nil; cfg must be valid.
// Postcondition: On error every partially built component has been released.
func Build(logger *zap.Logger, cfg config.Config, opts Options) (*App, error) {
	start := time.Now()

	src := dice.NewCryptoSource()
	if opts.Seed != 0 {
		src = dice.NewSeededSource(opts.Seed)
	}
	roller := dice.NewRoller(src, logger)

	units, err := roster.LoadDir(cfg.Content.UnitsDir)
	if err != nil {
		return nil, fmt.Errorf("loading units: %w", err)
	}
	scripts := scripting.NewManager(roller, logger, cfg.Content.InstructionLimit)
	if cfg.Content.ScriptsDir != "" {
		if err := scripts.LoadDir(cfg.Content.ScriptsDir); err != nil {
			scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
	}

	pool := dispatch.New(logger, cfg.Input.Workers, cfg.Input.QueueSize)
	hub := input.NewHub(logger, pool)
	resolver := effect.NewResolver(logger, roller, scripts)
	b, err := battle.New(logger, cfg, pool, hub, resolver, units)
	if err != nil {
		hub.Close()
		scripts.Close()
		return nil, err
	}
	resolver.OnResolved(b.Record)

	logger.Info("battle assembled",
		zap.Int("units", len(units)),
		zap.Int("input_workers", pool.Workers()),
		zap.Bool("ordered_input", pool.Ordered()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &App{
		Logger:   logger,
		Config:   cfg,
		Pool:     pool,
		Hub:      hub,
		Scripts:  scripts,
		Resolver: resolver,
		Battle:   b,
	}, nil
}

// Close stops input, drains the pool, and releases the battle and scripts.
func (a *App) Close() {
	a.Hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()
	if err := a.Pool.Stop(ctx); err != nil {
		a.Logger.Debug("stopping dispatch pool", zap.Error(err))
	}
	a.Battle.Close()
	a.Scripts.Close()
}
