package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/taktiks/internal/battle"
	"github.com/cory-johannsen/taktiks/internal/dispatch"
	"github.com/cory-johannsen/taktiks/internal/input"
)

// ErrExpectation is returned when a script's expected outcome does not match.
var ErrExpectation = errors.New("replay expectation not met")

// Result summarizes a finished replay.
type Result struct {
	Frames   int
	Turns    int
	Resolved int
	Winner   int
}

// Runner plays scripts against one battle.
type Runner struct {
	logger   *zap.Logger
	battle   *battle.Battle
	hub      *input.Hub
	pool     *dispatch.Pool
	dt       float64
	interval time.Duration
}

// NewRunner creates a Runner. Each frame advances the battle by 1/tickRate seconds;
// interval paces frames in wall time, and zero runs them back to back.
//
// Precondition: logger, b, hub and pool must be non-nil; tickRate > 0; interval >= 0.
func NewRunner(logger *zap.Logger, b *battle.Battle, hub *input.Hub, pool *dispatch.Pool, tickRate int, interval time.Duration) *Runner {
	return &Runner{
		logger:   logger.Named("replay"),
		battle:   b,
		hub:      hub,
		pool:     pool,
		dt:       1 / float64(tickRate),
		interval: interval,
	}
}

// Run plays every step of s in order, then checks s.Expect.
//
// Postcondition: On success every raised event has been dispatched.
func (r *Runner) Run(ctx context.Context, s Script) (Result, error) {
	r.logger.Info("replay started", zap.String("name", s.Name), zap.Int("steps", len(s.Steps)))
	var res Result
	for i, st := range s.Steps {
		if err := r.step(ctx, st, &res); err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, st.Action, err)
		}
	}
	res.Turns = r.battle.Turns()
	res.Resolved = r.battle.Resolved()
	res.Winner = r.battle.Winner()
	r.logger.Info("replay finished",
		zap.String("name", s.Name),
		zap.Int("frames", res.Frames),
		zap.Int("turns", res.Turns),
		zap.Int("resolved", res.Resolved),
		zap.Int("winner", res.Winner),
	)
	return res, check(s.Expect, res)
}

func (r *Runner) step(ctx context.Context, st Step, res *Result) error {
	p := st.Point()
	var err error
	switch st.Action {
	case ActionWait:
		for n := 0; n < st.Frames; n++ {
			if err := r.frame(ctx); err != nil {
				return err
			}
			res.Frames++
		}
		return nil
	case ActionDown:
		err = r.hub.RaiseCursorDown(st.Cursor, p)
	case ActionDrag:
		err = r.hub.RaiseCursorUpdate(st.Cursor, p)
	case ActionUp:
		err = r.hub.RaiseCursorUp(st.Cursor, p)
	case ActionTap:
		if err = r.hub.RaiseCursorDown(st.Cursor, p); err == nil {
			err = r.hub.RaiseCursorUp(st.Cursor, p)
		}
	}
	if err != nil {
		return err
	}
	return r.pool.Quiesce(ctx)
}

func (r *Runner) frame(ctx context.Context) error {
	r.battle.Tick(r.dt)
	if r.interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func check(want Expect, got Result) error {
	if want.Winner != 0 && want.Winner != got.Winner {
		return fmt.Errorf("%w: winner %d, want %d", ErrExpectation, got.Winner, want.Winner)
	}
	if want.Turns != 0 && want.Turns != got.Turns {
		return fmt.Errorf("%w: %d turns, want %d", ErrExpectation, got.Turns, want.Turns)
	}
	return nil
}
