package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/pkg/errors"
)

type stubWorker struct {
	*BaseWorker
	runs    int32
	runFunc func(ctx context.Context) error
}

func newStubWorker(name string, interval time.Duration, enabled bool) *stubWorker {
	return &stubWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (w *stubWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&w.runs, 1)
	if w.runFunc != nil {
		return w.runFunc(ctx)
	}
	return nil
}

func (w *stubWorker) Runs() int {
	return int(atomic.LoadInt32(&w.runs))
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler()

	fetcher := newStubWorker("quote_fetcher", 100*time.Millisecond, true)
	scheduler.RegisterWorker(fetcher)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Immediate run plus at least one tick
	assert.GreaterOrEqual(t, fetcher.Runs(), 2)
}

func TestSchedulerSkipsDisabledWorker(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newStubWorker("risk_computer", 100*time.Millisecond, true)
	disabled := newStubWorker("deviation_monitor", 100*time.Millisecond, false)

	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.Runs(), 0)
	assert.Equal(t, 0, disabled.Runs())
}

func TestSchedulerKeepsTickingAfterWorkerError(t *testing.T) {
	scheduler := NewScheduler()

	failing := newStubWorker("quote_fetcher", 80*time.Millisecond, true)
	failing.runFunc = func(ctx context.Context) error {
		return errors.New("exchange unavailable")
	}
	scheduler.RegisterWorker(failing)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// Failures are logged and recorded, never fatal to the loop
	assert.GreaterOrEqual(t, failing.Runs(), 2)
}

func TestSchedulerRecoversWorkerPanic(t *testing.T) {
	scheduler := NewScheduler()

	panicking := newStubWorker("cleanup", 80*time.Millisecond, true)
	panicking.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	steady := newStubWorker("risk_computer", 80*time.Millisecond, true)

	scheduler.RegisterWorker(panicking)
	scheduler.RegisterWorker(steady)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, panicking.Runs(), 2)
	assert.GreaterOrEqual(t, steady.Runs(), 2)
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newStubWorker("quote_fetcher", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestSchedulerCannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newStubWorker("quote_fetcher", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))

	scheduler.Stop()
}

func TestSchedulerGetWorkers(t *testing.T) {
	scheduler := NewScheduler()

	scheduler.RegisterWorker(newStubWorker("quote_fetcher", 100*time.Millisecond, true))
	scheduler.RegisterWorker(newStubWorker("cleanup", 24*time.Hour, false))

	workers := scheduler.GetWorkers()
	require.Len(t, workers, 2)
	assert.Equal(t, "quote_fetcher", workers[0].Name())
	assert.Equal(t, "cleanup", workers[1].Name())
}
