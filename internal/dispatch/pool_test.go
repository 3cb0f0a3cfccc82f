package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

func startPool(t *testing.T, workers, queue int) *Pool {
	t.Helper()
	p := New(zaptest.NewLogger(t), workers, queue)
	require.NoError(t, p.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = p.Stop(ctx)
	})
	return p
}

func quiesce(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Quiesce(ctx))
}

func TestSubmitBeforeStart(t *testing.T) {
	p := New(zaptest.NewLogger(t), 1, 4)
	assert.ErrorIs(t, p.Submit(func() {}), ErrNotRunning)
}

func TestStartTwice(t *testing.T) {
	p := startPool(t, 1, 4)
	assert.ErrorIs(t, p.Start(), ErrAlreadyRunning)
}

func TestStopWithoutStart(t *testing.T) {
	p := New(zaptest.NewLogger(t), 1, 4)
	assert.ErrorIs(t, p.Stop(context.Background()), ErrNotRunning)
}

func TestSubmitAfterStop(t *testing.T) {
	p := New(zaptest.NewLogger(t), 2, 4)
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop(context.Background()))
	assert.ErrorIs(t, p.Submit(func() {}), ErrNotRunning)
	assert.ErrorIs(t, p.Start(), ErrStopped)
	assert.ErrorIs(t, p.Stop(context.Background()), ErrNotRunning)
}

func TestStopDrainsQueuedTasks(t *testing.T) {
	p := New(zaptest.NewLogger(t), 1, 16)
	require.NoError(t, p.Start())
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(func() { ran.Add(1) }))
	}
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int32(10), ran.Load())
}

func TestSingleWorkerPreservesOrder(t *testing.T) {
	p := startPool(t, 1, 8)
	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	quiesce(t, p)
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.True(t, p.Ordered())
}

func TestMultipleWorkersMayReorder(t *testing.T) {
	p := startPool(t, 2, 8)
	assert.False(t, p.Ordered())

	release := make(chan struct{})
	var mu sync.Mutex
	var got []string

	// The first task blocks its worker, so the second task finishes first on the other worker.
	require.NoError(t, p.Submit(func() {
		<-release
		mu.Lock()
		got = append(got, "first")
		mu.Unlock()
	}))
	secondDone := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		mu.Lock()
		got = append(got, "second")
		mu.Unlock()
		close(secondDone)
	}))

	<-secondDone
	close(release)
	quiesce(t, p)
	assert.Equal(t, []string{"second", "first"}, got)
}

func TestPanicIsRecoveredAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	p := New(zap.New(core), 1, 4)
	require.NoError(t, p.Start())
	defer func() { _ = p.Stop(context.Background()) }()

	require.NoError(t, p.Submit(func() { panic("boom") }))
	var after atomic.Bool
	require.NoError(t, p.Submit(func() { after.Store(true) }))
	quiesce(t, p)

	assert.True(t, after.Load(), "worker survives a panicking task")
	assert.Equal(t, uint64(1), p.Stats().Panicked)
	assert.Equal(t, 1, logs.FilterMessage("task panicked").Len())
}

func TestNestedSubmitCountsAsPending(t *testing.T) {
	p := startPool(t, 1, 8)
	var inner atomic.Bool
	gate := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		<-gate
		_ = p.Submit(func() { inner.Store(true) })
	}))
	assert.False(t, p.Idle())
	close(gate)
	quiesce(t, p)
	assert.True(t, inner.Load())
	assert.Equal(t, uint64(2), p.Stats().Completed)
}

func TestDeferFromRunningTaskDoesNotWaitForSpace(t *testing.T) {
	p := startPool(t, 1, 1)

	var mu sync.Mutex
	var got []string
	record := func(s string) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}

	gate := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-gate }))
	require.Eventually(t, func() bool { return p.Queued() == 0 }, time.Second, time.Millisecond)

	// Fill the only slot with a task that schedules two more while the queue is full.
	require.NoError(t, p.Submit(func() {
		record("outer")
		assert.NoError(t, p.Defer(func() { record("first") }))
		assert.NoError(t, p.Defer(func() { record("second") }))
	}))

	// A third external submitter waits for space behind the outer task.
	waiting := make(chan error, 1)
	go func() { waiting <- p.Submit(func() { record("external") }) }()

	close(gate)
	require.NoError(t, <-waiting)
	quiesce(t, p)

	assert.Len(t, got, 4)
	assert.Equal(t, "outer", got[0])
	assert.Less(t, indexOf(got, "first"), indexOf(got, "second"))
	assert.Equal(t, uint64(5), p.Stats().Completed)
}

func TestDeferSingleWorkerSelfRescheduling(t *testing.T) {
	p := startPool(t, 1, 1)
	var runs atomic.Int32
	var step func()
	step = func() {
		if runs.Add(1) < 50 {
			assert.NoError(t, p.Defer(step))
			assert.NoError(t, p.Defer(func() {}))
		}
	}
	require.NoError(t, p.Submit(step))
	quiesce(t, p)
	assert.Equal(t, int32(50), runs.Load())
}

func TestDeferOutsideRunningPool(t *testing.T) {
	p := New(zaptest.NewLogger(t), 1, 1)
	assert.ErrorIs(t, p.Defer(func() {}), ErrNotRunning)
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop(context.Background()))
	assert.ErrorIs(t, p.Defer(func() {}), ErrNotRunning)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestStopReleasesBlockedSubmitter(t *testing.T) {
	p := New(zaptest.NewLogger(t), 1, 1)
	require.NoError(t, p.Start())

	block := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-block }))
	require.Eventually(t, func() bool { return p.Stats().Pending == 1 && p.Queued() == 0 },
		time.Second, time.Millisecond)
	require.NoError(t, p.Submit(func() {}))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Submit(func() {}) }()
	require.Eventually(t, func() bool { return p.Stats().Pending == 3 }, time.Second, time.Millisecond)

	stopDone := make(chan error, 1)
	go func() { stopDone <- p.Stop(context.Background()) }()

	assert.ErrorIs(t, <-errCh, ErrStopped)
	close(block)
	assert.NoError(t, <-stopDone)
}

func TestPropertySingleWorkerIsFIFO(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(rt, "n")
		p := New(zap.NewNop(), 1, rapid.IntRange(1, 8).Draw(rt, "queue"))
		if err := p.Start(); err != nil {
			rt.Fatalf("start: %v", err)
		}
		var mu sync.Mutex
		var got []int
		for i := 0; i < n; i++ {
			i := i
			if err := p.Submit(func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
			}); err != nil {
				rt.Fatalf("submit: %v", err)
			}
		}
		if err := p.Stop(context.Background()); err != nil {
			rt.Fatalf("stop: %v", err)
		}
		for i, v := range got {
			if v != i {
				rt.Fatalf("position %d holds %d", i, v)
			}
		}
		if len(got) != n {
			rt.Fatalf("ran %d of %d", len(got), n)
		}
	})
}
