package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/parameter"
	"github.com/lixenwraith/tickworld/status"
)

// DriverState is the lifecycle state of a TickDriver
type DriverState int32

const (
	StateStopped DriverState = iota
	StateRunning
	StatePaused
)

func (s DriverState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// BackpressurePolicy decides what happens to a tick when the queue is full
type BackpressurePolicy int

const (
	// DropNewest discards the new tick
	DropNewest BackpressurePolicy = iota
	// DropOldest evicts the oldest queued tick to make room
	DropOldest
	// BlockProducer stalls the driver until the consumer drains
	BlockProducer
)

func (p BackpressurePolicy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case BlockProducer:
		return "block"
	default:
		return "drop-newest"
	}
}

// ParseBackpressure parses drop-newest, drop-oldest or block
func ParseBackpressure(s string) (BackpressurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop-newest", "":
		return DropNewest, nil
	case "drop-oldest":
		return DropOldest, nil
	case "block":
		return BlockProducer, nil
	}
	return DropNewest, eris.Errorf("unknown backpressure policy %q", s)
}

// CatchUpPolicy decides how the driver recovers after falling behind schedule
type CatchUpPolicy int

const (
	// CatchUpClamp fires back-to-back up to maxBurst intervals late, then skips ahead
	CatchUpClamp CatchUpPolicy = iota
	// CatchUpBurst fires every missed tick back-to-back
	CatchUpBurst
	// CatchUpDrop realigns to now after any late tick
	CatchUpDrop
)

func (p CatchUpPolicy) String() string {
	switch p {
	case CatchUpBurst:
		return "burst"
	case CatchUpDrop:
		return "drop"
	default:
		return "clamp"
	}
}

// ParseCatchUp parses clamp, burst or drop
func ParseCatchUp(s string) (CatchUpPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clamp", "":
		return CatchUpClamp, nil
	case "burst":
		return CatchUpBurst, nil
	case "drop":
		return CatchUpDrop, nil
	}
	return CatchUpClamp, eris.Errorf("unknown catch-up policy %q", s)
}

// TickEvent is published once per fired tick
type TickEvent struct {
	TargetTPS int
	Tick      uint64
	GameTime  time.Time
	Interval  time.Duration
}

// TickDriver fires ticks at a fixed logical rate on its own goroutine and
// publishes them on a bounded channel. A driver is single-use: after Stop or
// Cancel it cannot be restarted.
type TickDriver struct {
	tps      int
	interval time.Duration

	clock  Clock
	pclock *PausableClock

	queueSize    int
	backpressure BackpressurePolicy
	catchUp      CatchUpPolicy
	maxBurst     int
	hook         func(TickEvent)

	ticks  chan TickEvent
	stopCh chan struct{}
	wakeCh chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	state   DriverState
	started bool
	stopped bool

	cancelled atomic.Bool
	elapsed   atomic.Uint64
	dropped   atomic.Uint64
	skipped   atomic.Uint64

	log         logrus.FieldLogger
	statFired   *atomic.Int64
	statDropped *atomic.Int64
	statSkipped *atomic.Int64
	statState   *status.AtomicString
	statLag     *status.AtomicFloat
	statLagPeak *status.AtomicFloat
}

// TickOption configures a TickDriver
type TickOption func(*TickDriver)

// WithClock sets the base clock; tests pass a MockClock
func WithClock(c Clock) TickOption {
	return func(d *TickDriver) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithQueueSize sets the tick channel capacity
func WithQueueSize(n int) TickOption {
	return func(d *TickDriver) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithBackpressure sets the full-queue policy
func WithBackpressure(p BackpressurePolicy) TickOption {
	return func(d *TickDriver) { d.backpressure = p }
}

// WithCatchUp sets the late-tick policy; maxBurst applies to CatchUpClamp
func WithCatchUp(p CatchUpPolicy, maxBurst int) TickOption {
	return func(d *TickDriver) {
		d.catchUp = p
		if maxBurst > 0 {
			d.maxBurst = maxBurst
		}
	}
}

// WithTickHook calls fn synchronously on the driver goroutine for every fired tick,
// before the tick is queued. A slow hook delays the next tick.
func WithTickHook(fn func(TickEvent)) TickOption {
	return func(d *TickDriver) { d.hook = fn }
}

// WithDriverLogger sets the driver logger
func WithDriverLogger(l logrus.FieldLogger) TickOption {
	return func(d *TickDriver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDriverStatus publishes tick counters into reg
func WithDriverStatus(reg *status.Registry) TickOption {
	return func(d *TickDriver) {
		if reg == nil {
			return
		}
		d.statFired = reg.Counter(status.KeyTicksFired)
		d.statDropped = reg.Counter(status.KeyTicksDropped)
		d.statSkipped = reg.Counter(status.KeyTicksSkipped)
		d.statState = reg.Label(status.KeyTickState)
		d.statLag = reg.Gauge(status.KeyTickLagMs)
		d.statLagPeak = reg.Gauge(status.KeyTickLagPeakMs)
	}
}

// NewTickDriver creates a stopped driver; tps <= 0 falls back to parameter.DefaultTPS
func NewTickDriver(tps int, opts ...TickOption) *TickDriver {
	d := &TickDriver{
		clock:     NewRealClock(),
		queueSize: parameter.DefaultTickQueueSize,
		maxBurst:  parameter.DefaultMaxBurst,
		log:       core.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("component", "tick_driver")

	if tps <= 0 {
		d.log.WithField("tps", tps).Warn("invalid tick rate, using default")
		tps = parameter.DefaultTPS
	}
	d.tps = tps
	d.interval = time.Second / time.Duration(tps)
	d.pclock = NewPausableClock(d.clock)

	d.ticks = make(chan TickEvent, d.queueSize)
	d.stopCh = make(chan struct{})
	d.wakeCh = make(chan struct{}, 1)
	d.done = make(chan struct{})
	d.publishState(StateStopped)
	return d
}

// Ticks returns the tick channel; it is closed when the driver stops
func (d *TickDriver) Ticks() <-chan TickEvent { return d.ticks }

// Interval returns the fixed tick interval
func (d *TickDriver) Interval() time.Duration { return d.interval }

// TPS returns the target tick rate
func (d *TickDriver) TPS() int { return d.tps }

// Clock returns the driver's pausable game clock
func (d *TickDriver) Clock() *PausableClock { return d.pclock }

// ElapsedTicks returns the number of fired ticks
func (d *TickDriver) ElapsedTicks() uint64 { return d.elapsed.Load() }

// Dropped returns ticks discarded by backpressure
func (d *TickDriver) Dropped() uint64 { return d.dropped.Load() }

// Skipped returns ticks never fired due to catch-up policy
func (d *TickDriver) Skipped() uint64 { return d.skipped.Load() }

// Cancelled reports whether Cancel was called
func (d *TickDriver) Cancelled() bool { return d.cancelled.Load() }

// State returns the lifecycle state
func (d *TickDriver) State() DriverState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start launches the tick loop
func (d *TickDriver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelled.Load() {
		return eris.Wrap(ErrConflict, "tick driver cancelled")
	}
	if d.started || d.stopped {
		return eris.Wrap(ErrConflict, "tick driver already started")
	}
	d.started = true
	d.setStateLocked(StateRunning)

	// Use core.Go for safe execution with centralized crash handling
	core.Go(d.loop)
	d.log.WithFields(logrus.Fields{
		"tps":      d.tps,
		"interval": d.interval,
		"policy":   d.backpressure.String(),
		"catch_up": d.catchUp.String(),
	}).Info("tick driver started")
	return nil
}

// Stop halts the loop, waits for it to exit and closes the tick channel
func (d *TickDriver) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.stopped = true
	started := d.started
	d.setStateLocked(StateStopped)
	d.mu.Unlock()

	close(d.stopCh)
	if !started {
		close(d.ticks)
		close(d.done)
		return
	}
	<-d.done
	d.log.WithField("ticks", d.ElapsedTicks()).Info("tick driver stopped")
}

// Cancel flags the loop to unwind at its next check without waiting for it
func (d *TickDriver) Cancel() {
	d.cancelled.Store(true)

	d.mu.Lock()
	if !d.started && !d.stopped {
		d.stopped = true
		d.setStateLocked(StateStopped)
		d.mu.Unlock()
		close(d.stopCh)
		close(d.ticks)
		close(d.done)
		return
	}
	d.mu.Unlock()
	d.wake()
	d.log.Info("tick driver cancelled")
}

// Pause freezes game time and tick firing
func (d *TickDriver) Pause() {
	d.mu.Lock()
	if d.state != StateRunning {
		d.mu.Unlock()
		return
	}
	d.pclock.Pause()
	d.setStateLocked(StatePaused)
	d.mu.Unlock()

	d.wake()
	d.log.Info("tick driver paused")
}

// Resume continues after Pause
func (d *TickDriver) Resume() {
	d.mu.Lock()
	if d.state != StatePaused {
		d.mu.Unlock()
		return
	}
	d.pclock.Resume()
	d.setStateLocked(StateRunning)
	d.mu.Unlock()

	d.wake()
	d.log.Info("tick driver resumed")
}

// Done is closed once the loop has exited
func (d *TickDriver) Done() <-chan struct{} { return d.done }

func (d *TickDriver) loop() {
	defer close(d.done)
	defer close(d.ticks)
	defer func() {
		d.mu.Lock()
		d.setStateLocked(StateStopped)
		d.mu.Unlock()
	}()

	next := d.pclock.Now().Add(d.interval)

	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		if d.cancelled.Load() {
			return
		}

		if d.State() == StatePaused {
			// Game time is frozen; park until Resume, Cancel or Stop
			select {
			case <-d.wakeCh:
			case <-d.stopCh:
				return
			}
			continue
		}

		now := d.pclock.Now()
		if now.Before(next) {
			if !d.wait(next.Sub(now)) {
				return
			}
			continue
		}

		if d.statLag != nil {
			lag := float64(now.Sub(next)) / float64(time.Millisecond)
			d.statLag.Set(lag)
			d.statLagPeak.SetMax(lag)
		}
		if !d.fire(next) {
			return
		}
		next = d.advance(next, now)
	}
}

// fire counts the tick, runs the hook and queues the event; false if stopped while blocked
func (d *TickDriver) fire(deadline time.Time) bool {
	ev := TickEvent{
		TargetTPS: d.tps,
		Tick:      d.elapsed.Add(1),
		GameTime:  deadline,
		Interval:  d.interval,
	}
	if d.statFired != nil {
		d.statFired.Add(1)
	}
	if d.hook != nil {
		d.hook(ev)
	}
	return d.publish(ev)
}

// advance computes the next deadline per the catch-up policy
func (d *TickDriver) advance(next, now time.Time) time.Time {
	next = next.Add(d.interval)

	var behind time.Duration
	switch d.catchUp {
	case CatchUpBurst:
		return next
	case CatchUpDrop:
		if now.Before(next) {
			return next
		}
		behind = now.Sub(next)
	default:
		behind = now.Sub(next)
		if behind <= time.Duration(d.maxBurst)*d.interval {
			return next
		}
	}

	skipped := uint64(behind/d.interval) + 1
	d.skipped.Add(skipped)
	if d.statSkipped != nil {
		d.statSkipped.Add(int64(skipped))
	}
	d.log.WithFields(logrus.Fields{
		"behind":  behind,
		"skipped": skipped,
	}).Debug("tick driver behind schedule, realigning")
	return now.Add(d.interval)
}

func (d *TickDriver) publish(ev TickEvent) bool {
	select {
	case d.ticks <- ev:
		return true
	default:
	}

	switch d.backpressure {
	case BlockProducer:
		for {
			select {
			case d.ticks <- ev:
				return true
			case <-d.stopCh:
				return false
			case <-d.wakeCh:
				if d.cancelled.Load() {
					return false
				}
			}
		}
	case DropOldest:
		select {
		case old := <-d.ticks:
			d.countDrop(old.Tick)
		default:
		}
		select {
		case d.ticks <- ev:
		default:
			d.countDrop(ev.Tick)
		}
	default:
		d.countDrop(ev.Tick)
	}
	return true
}

func (d *TickDriver) countDrop(tick uint64) {
	d.dropped.Add(1)
	if d.statDropped != nil {
		d.statDropped.Add(1)
	}
	d.log.WithField("tick", tick).Debug("tick queue full, tick dropped")
}

// wait sleeps for dur on the base clock; false if the driver was stopped
func (d *TickDriver) wait(dur time.Duration) bool {
	t := d.clock.NewTimer(dur)
	defer t.Stop()

	select {
	case <-t.C():
		return true
	case <-d.wakeCh:
		return true
	case <-d.stopCh:
		return false
	}
}

func (d *TickDriver) wake() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

func (d *TickDriver) setStateLocked(s DriverState) {
	d.state = s
	d.publishState(s)
}

func (d *TickDriver) publishState(s DriverState) {
	if d.statState != nil {
		d.statState.Store(s.String())
	}
}

// RunSchedule consumes ticks on the calling goroutine: each tick updates the
// TimeResource and executes the schedule under the world lock.
// It returns nil when the tick channel closes, or the context error.
func RunSchedule(ctx context.Context, d *TickDriver, sc *Schedule, w *World) error {
	timeRes := MustGetResource[*TimeResource](w.Resources)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.Ticks():
			if !ok {
				return nil
			}
			w.RunSafe(func() {
				timeRes.Update(ev)
				sc.Execute(w)
				w.PublishStatus()
			})
		}
	}
}
