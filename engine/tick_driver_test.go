package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickworld/status"
)

const waitTimeout = 2 * time.Second

func newMockDriver(t *testing.T, tps int, opts ...TickOption) (*TickDriver, *MockClock) {
	t.Helper()
	clock := NewMockClock(epoch)
	d := NewTickDriver(tps, append([]TickOption{WithClock(clock)}, opts...)...)
	t.Cleanup(d.Stop)
	return d, clock
}

// startDriver starts d and waits until its loop is parked on the clock
func startDriver(t *testing.T, d *TickDriver, clock *MockClock) {
	t.Helper()
	require.NoError(t, d.Start())
	require.True(t, clock.BlockUntil(1, waitTimeout), "driver loop did not park")
}

// advance moves the clock in small steps, letting the loop park after each one
func advance(t *testing.T, clock *MockClock, total, step time.Duration) {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		clock.Advance(step)
		require.True(t, clock.BlockUntil(1, waitTimeout), "driver loop did not park")
	}
}

func TestTickDriver_Cadence(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	advance(t, clock, time.Second, 5*time.Millisecond)

	n := d.ElapsedTicks()
	assert.GreaterOrEqual(t, n, uint64(27))
	assert.LessOrEqual(t, n, uint64(33))
	assert.Zero(t, d.Skipped())
}

func TestTickDriver_InvalidTPSFallsBack(t *testing.T) {
	d := NewTickDriver(0)
	defer d.Stop()

	assert.Equal(t, 30, d.TPS())
	assert.Equal(t, time.Second/30, d.Interval())
	assert.Equal(t, StateStopped, d.State())
}

func TestTickDriver_EventsAreSequential(t *testing.T) {
	d, clock := newMockDriver(t, 10, WithQueueSize(8))
	startDriver(t, d, clock)

	advance(t, clock, 350*time.Millisecond, 10*time.Millisecond)

	for want := uint64(1); want <= 3; want++ {
		ev := <-d.Ticks()
		assert.Equal(t, want, ev.Tick)
		assert.Equal(t, 10, ev.TargetTPS)
		assert.Equal(t, 100*time.Millisecond, ev.Interval)
		assert.Equal(t, epoch.Add(time.Duration(want)*100*time.Millisecond), ev.GameTime)
	}
}

func TestTickDriver_PauseFreezesTicks(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	advance(t, clock, 110*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, uint64(3), d.ElapsedTicks())

	d.Pause()
	assert.Equal(t, StatePaused, d.State())
	require.Eventually(t, func() bool { return clock.Sleepers() == 0 }, waitTimeout, time.Millisecond)

	clock.Advance(time.Second)
	assert.Equal(t, uint64(3), d.ElapsedTicks())
	assert.Equal(t, epoch.Add(110*time.Millisecond), d.Clock().Now())

	d.Resume()
	assert.Equal(t, StateRunning, d.State())
	require.True(t, clock.BlockUntil(1, waitTimeout))

	advance(t, clock, 100*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, uint64(6), d.ElapsedTicks())
}

func TestTickDriver_PauseResumeOutsideRunningAreNoOps(t *testing.T) {
	d, _ := newMockDriver(t, 30)

	d.Pause()
	assert.Equal(t, StateStopped, d.State())
	d.Resume()
	assert.Equal(t, StateStopped, d.State())
}

func TestTickDriver_CatchUpClamp(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	// One long stall: a single late tick fires, the rest are skipped
	clock.Advance(time.Second)
	require.True(t, clock.BlockUntil(1, waitTimeout))

	assert.Equal(t, uint64(1), d.ElapsedTicks())
	assert.Equal(t, uint64(29), d.Skipped())
}

func TestTickDriver_CatchUpClampAllowsSmallLag(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	clock.Advance(70 * time.Millisecond)
	require.True(t, clock.BlockUntil(1, waitTimeout))

	assert.Equal(t, uint64(2), d.ElapsedTicks())
	assert.Zero(t, d.Skipped())
}

func TestTickDriver_CatchUpBurst(t *testing.T) {
	d, clock := newMockDriver(t, 30, WithCatchUp(CatchUpBurst, 0))
	startDriver(t, d, clock)

	clock.Advance(time.Second)
	require.True(t, clock.BlockUntil(1, waitTimeout))

	assert.Equal(t, uint64(30), d.ElapsedTicks())
	assert.Zero(t, d.Skipped())
	assert.Equal(t, uint64(30-4), d.Dropped(), "unconsumed queue of 4 drops the rest")
}

func TestTickDriver_CatchUpDrop(t *testing.T) {
	d, clock := newMockDriver(t, 30, WithCatchUp(CatchUpDrop, 0))
	startDriver(t, d, clock)

	clock.Advance(70 * time.Millisecond)
	require.True(t, clock.BlockUntil(1, waitTimeout))

	assert.Equal(t, uint64(1), d.ElapsedTicks())
	assert.Equal(t, uint64(1), d.Skipped())
}

func TestTickDriver_DropNewest(t *testing.T) {
	d, clock := newMockDriver(t, 10, WithQueueSize(2))
	startDriver(t, d, clock)

	advance(t, clock, 300*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, uint64(3), d.ElapsedTicks())
	assert.Equal(t, uint64(1), d.Dropped())

	assert.Equal(t, uint64(1), (<-d.Ticks()).Tick)
	assert.Equal(t, uint64(2), (<-d.Ticks()).Tick)
}

func TestTickDriver_DropOldest(t *testing.T) {
	d, clock := newMockDriver(t, 10, WithQueueSize(2), WithBackpressure(DropOldest))
	startDriver(t, d, clock)

	advance(t, clock, 300*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, uint64(3), d.ElapsedTicks())
	assert.Equal(t, uint64(1), d.Dropped())

	assert.Equal(t, uint64(2), (<-d.Ticks()).Tick)
	assert.Equal(t, uint64(3), (<-d.Ticks()).Tick)
}

func TestTickDriver_BlockProducer(t *testing.T) {
	d, clock := newMockDriver(t, 10, WithQueueSize(1), WithBackpressure(BlockProducer))
	startDriver(t, d, clock)

	clock.Advance(100 * time.Millisecond)
	require.True(t, clock.BlockUntil(1, waitTimeout))
	clock.Advance(100 * time.Millisecond)

	require.Eventually(t, func() bool { return d.ElapsedTicks() == 2 }, waitTimeout, time.Millisecond)
	assert.False(t, clock.BlockUntil(1, 20*time.Millisecond), "producer must stay blocked on a full queue")

	assert.Equal(t, uint64(1), (<-d.Ticks()).Tick)
	require.True(t, clock.BlockUntil(1, waitTimeout))
	assert.Equal(t, uint64(2), (<-d.Ticks()).Tick)
	assert.Zero(t, d.Dropped())
}

func TestTickDriver_StopUnblocksProducer(t *testing.T) {
	d, clock := newMockDriver(t, 10, WithQueueSize(1), WithBackpressure(BlockProducer))
	startDriver(t, d, clock)

	clock.Advance(200 * time.Millisecond)
	require.Eventually(t, func() bool { return d.ElapsedTicks() == 2 }, waitTimeout, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(waitTimeout):
		t.Fatal("Stop did not return while producer was blocked")
	}
}

func TestTickDriver_StopClosesTicks(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	d.Stop()
	d.Stop()
	assert.Equal(t, StateStopped, d.State())

	_, ok := <-d.Ticks()
	assert.False(t, ok)

	err := d.Start()
	assert.True(t, eris.Is(err, ErrConflict), "driver is single-use")
}

func TestTickDriver_StartTwiceConflicts(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	assert.True(t, eris.Is(d.Start(), ErrConflict))
}

func TestTickDriver_StopBeforeStart(t *testing.T) {
	d := NewTickDriver(30)
	d.Stop()

	_, ok := <-d.Ticks()
	assert.False(t, ok)
	assert.True(t, eris.Is(d.Start(), ErrConflict))
}

func TestTickDriver_Cancel(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)

	d.Cancel()
	assert.True(t, d.Cancelled())

	select {
	case <-d.Done():
	case <-time.After(waitTimeout):
		t.Fatal("loop did not unwind after Cancel")
	}
	assert.Equal(t, StateStopped, d.State())
	assert.True(t, eris.Is(d.Start(), ErrConflict))
}

func TestTickDriver_CancelWhilePaused(t *testing.T) {
	d, clock := newMockDriver(t, 30)
	startDriver(t, d, clock)
	d.Pause()

	d.Cancel()
	select {
	case <-d.Done():
	case <-time.After(waitTimeout):
		t.Fatal("paused loop did not unwind after Cancel")
	}
}

func TestTickDriver_HookAndStatus(t *testing.T) {
	reg := status.NewRegistry()

	var mu sync.Mutex
	var seen []uint64
	hook := func(ev TickEvent) {
		mu.Lock()
		seen = append(seen, ev.Tick)
		mu.Unlock()
	}

	d, clock := newMockDriver(t, 10, WithTickHook(hook), WithDriverStatus(reg))
	assert.Equal(t, "stopped", reg.Snapshot()[status.KeyTickState])
	startDriver(t, d, clock)

	advance(t, clock, 200*time.Millisecond, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []uint64{1, 2}, seen)
	mu.Unlock()

	snap := reg.Snapshot()
	assert.Equal(t, "2", snap[status.KeyTicksFired])
	assert.Equal(t, "running", snap[status.KeyTickState])

	// Tick 3 is due at 300ms and fires 50ms late
	clock.Advance(150 * time.Millisecond)
	require.True(t, clock.BlockUntil(1, waitTimeout))
	snap = reg.Snapshot("tick.lag")
	assert.Equal(t, "50.00", snap[status.KeyTickLagMs])
	assert.Equal(t, "50.00", snap[status.KeyTickLagPeakMs])

	// Tick 4 is due at 400ms and fires 10ms late; the peak holds
	clock.Advance(60 * time.Millisecond)
	require.True(t, clock.BlockUntil(1, waitTimeout))
	snap = reg.Snapshot("tick.lag")
	assert.Equal(t, "10.00", snap[status.KeyTickLagMs])
	assert.Equal(t, "50.00", snap[status.KeyTickLagPeakMs])
	assert.Equal(t, uint64(4), d.ElapsedTicks())
}

func TestPolicyParsing(t *testing.T) {
	tests := []struct {
		in   string
		want BackpressurePolicy
	}{
		{"", DropNewest},
		{"drop-newest", DropNewest},
		{"Drop-Oldest", DropOldest},
		{"block", BlockProducer},
	}
	for _, tt := range tests {
		got, err := ParseBackpressure(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		if tt.in != "" {
			assert.Equal(t, tt.want.String(), got.String())
		}
	}
	_, err := ParseBackpressure("queue")
	assert.Error(t, err)

	c, err := ParseCatchUp("burst")
	require.NoError(t, err)
	assert.Equal(t, CatchUpBurst, c)
	assert.Equal(t, "clamp", CatchUpClamp.String())
	_, err = ParseCatchUp("skip")
	assert.Error(t, err)
}

type tickCounter struct {
	SystemBase
	runs     int
	lastTick uint64
	delta    time.Duration
}

func (c *tickCounter) Execute(w *World) {
	tr := MustGetResource[*TimeResource](w.Resources)
	c.runs++
	c.lastTick = tr.Tick
	c.delta = tr.DeltaTime
}

func TestRunSchedule_ConsumesUntilStop(t *testing.T) {
	w := NewWorld()
	sc := NewDefaultSchedule(nil, nil)
	counter := &tickCounter{}
	require.NoError(t, sc.AddSystem(StageUpdate, counter, 0))

	d, clock := newMockDriver(t, 30, WithQueueSize(16))

	errCh := make(chan error, 1)
	go func() { errCh <- RunSchedule(context.Background(), d, sc, w) }()

	startDriver(t, d, clock)
	advance(t, clock, 110*time.Millisecond, 5*time.Millisecond)
	d.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("RunSchedule did not return after Stop")
	}

	assert.Equal(t, 3, counter.runs)
	assert.Equal(t, uint64(3), counter.lastTick)
	assert.Equal(t, time.Second/30, counter.delta)
}

func TestRunSchedule_ContextCancel(t *testing.T) {
	w := NewWorld()
	d, _ := newMockDriver(t, 30)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- RunSchedule(ctx, d, NewSchedule(), w) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitTimeout):
		t.Fatal("RunSchedule ignored context cancellation")
	}
}
