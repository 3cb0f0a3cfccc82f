package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingService struct {
	name    string
	order   *[]string
	mu      *sync.Mutex
	started atomic.Bool
	run     func(ctx context.Context) error
}

func (r *recordingService) Start(ctx context.Context) error {
	r.started.Store(true)
	if r.run != nil {
		return r.run(ctx)
	}
	return Idle(ctx)
}

func (r *recordingService) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.order = append(*r.order, r.name)
}

func services(names ...string) ([]*recordingService, *[]string) {
	order := &[]string{}
	mu := &sync.Mutex{}
	out := make([]*recordingService, 0, len(names))
	for _, n := range names {
		out = append(out, &recordingService{name: n, order: order, mu: mu})
	}
	return out, order
}

func runAsync(lc *Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestRun_CancelStopsInReverseOrder(t *testing.T) {
	lc := New(zaptest.NewLogger(t))
	svcs, order := services("pool", "battle", "replay")
	for _, s := range svcs {
		lc.Add(s.name, s)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)

	require.Eventually(t, func() bool {
		for _, s := range svcs {
			if !s.started.Load() {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.NoError(t, await(t, done))
	assert.Equal(t, []string{"replay", "battle", "pool"}, *order)
}

func TestRun_FinishedServiceShutsDownTheRest(t *testing.T) {
	lc := New(zaptest.NewLogger(t))
	svcs, order := services("pool", "replay")
	svcs[1].run = func(context.Context) error { return nil }
	lc.Add("pool", svcs[0])
	lc.Add("replay", svcs[1])

	assert.NoError(t, await(t, runAsync(lc, context.Background())))
	assert.Equal(t, []string{"replay", "pool"}, *order)
}

func TestRun_FailureIsReturned(t *testing.T) {
	lc := New(zaptest.NewLogger(t))
	svcs, _ := services("pool", "replay")
	boom := errors.New("boom")
	svcs[1].run = func(context.Context) error { return boom }
	lc.Add("pool", svcs[0])
	lc.Add("replay", svcs[1])

	err := await(t, runAsync(lc, context.Background()))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service replay")
}

func TestFuncService(t *testing.T) {
	var started, stopped bool
	svc := &FuncService{
		StartFn: func(context.Context) error {
			started = true
			return nil
		},
		StopFn: func() { stopped = true },
	}

	assert.NoError(t, svc.Start(context.Background()))
	assert.True(t, started)
	svc.Stop()
	assert.True(t, stopped)

	(&FuncService{StartFn: Idle}).Stop()
}
