package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/audio"
	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/config"
	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/status"
	"github.com/lixenwraith/tickworld/system"
)

// app owns the world, its schedule and the tick driver feeding it
type app struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	status    *status.Registry
	world     *engine.World
	schedule  *engine.Schedule
	driver    *engine.TickDriver
	metronome *audio.Metronome

	consumerDone chan error
}

// newApp wires every component from cfg; clock may be nil for wall time
func newApp(cfg *config.Config, log logrus.FieldLogger, arena component.ArenaResource, clock engine.Clock) (*app, error) {
	reg := status.NewRegistry()

	w := engine.NewWorld(
		engine.WithLogger(log),
		engine.WithStatus(reg),
		engine.WithAllocator(engine.WithRecycleCapacity(cfg.RecycleCapacity)),
		engine.WithSparseSetOptions(
			engine.WithPageSize(cfg.PageSize),
			engine.WithMaxEntity(core.Entity(cfg.MaxEntity)),
		),
	)

	sc := engine.NewDefaultSchedule(log, reg)
	if err := system.Install(sc, w, system.Options{
		Population: cfg.Entities,
		Seed:       time.Now().UnixNano(),
		Arena:      arena,
		Logger:     log,
	}); err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		log:          log,
		status:       reg,
		world:        w,
		schedule:     sc,
		consumerDone: make(chan error, 1),
	}

	opts := []engine.TickOption{
		engine.WithQueueSize(cfg.TickQueue),
		engine.WithBackpressure(cfg.Backpressure),
		engine.WithCatchUp(cfg.CatchUp, cfg.MaxBurst),
		engine.WithDriverLogger(log),
		engine.WithDriverStatus(reg),
	}
	if clock != nil {
		opts = append(opts, engine.WithClock(clock))
	}
	if cfg.Metronome {
		a.metronome = audio.NewMetronome(log)
		opts = append(opts, engine.WithTickHook(a.metronome.OnTick))
	}
	a.driver = engine.NewTickDriver(cfg.TPS, opts...)

	return a, nil
}

// start launches the driver and the schedule consumer
func (a *app) start(ctx context.Context) error {
	if err := a.driver.Start(); err != nil {
		return err
	}
	core.Go(func() {
		a.consumerDone <- engine.RunSchedule(ctx, a.driver, a.schedule, a.world)
	})
	return nil
}

// stop halts the driver and waits for the consumer to drain
func (a *app) stop() error {
	a.driver.Stop()
	err := <-a.consumerDone
	if a.metronome != nil {
		a.metronome.Cleanup()
	}
	a.log.WithFields(logrus.Fields{
		"ticks":   a.driver.ElapsedTicks(),
		"dropped": a.driver.Dropped(),
		"skipped": a.driver.Skipped(),
	}).Info("run summary")
	return err
}

// togglePause flips the driver between running and paused
func (a *app) togglePause() {
	if a.driver.State() == engine.StatePaused {
		a.driver.Resume()
		return
	}
	a.driver.Pause()
}

// resize replaces the arena bounds under the world lock
func (a *app) resize(arena component.ArenaResource) {
	a.world.RunSafe(func() {
		res := engine.MustGetResource[*component.ArenaResource](a.world.Resources)
		*res = arena
	})
}
