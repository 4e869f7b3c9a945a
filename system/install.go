// Package system holds the demo simulation systems and their wiring into a schedule.
package system

import (
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/parameter"
)

// Options configures the demo systems
type Options struct {
	Population int
	Seed       int64
	Arena      component.ArenaResource
	Logger     logrus.FieldLogger
}

// Install registers the arena resource and every demo system into the default stages of sc
func Install(sc *engine.Schedule, w *engine.World, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = w.Logger()
	}
	if opts.Arena.Width <= 0 || opts.Arena.Height <= 0 {
		opts.Arena = component.ArenaResource{
			Width:  parameter.DefaultArenaWidth,
			Height: parameter.DefaultArenaHeight,
		}
	}
	arena := opts.Arena
	engine.AddResource(w.Resources, &arena)

	registrations := []struct {
		stage    engine.StageID
		system   engine.System
		priority int
	}{
		{engine.StagePreUpdate, NewSpawnSystem(w, opts.Population, opts.Seed, opts.Logger), parameter.PrioritySpawn},
		{engine.StageUpdate, NewMotionSystem(w), parameter.PriorityMotion},
		{engine.StageUpdate, NewBoundsSystem(w), parameter.PriorityBounds},
		{engine.StagePostUpdate, NewTimerSystem(w), parameter.PriorityTimer},
		{engine.StagePostUpdate, NewCullSystem(w), parameter.PriorityCull},
	}
	for _, r := range registrations {
		if err := sc.AddSystem(r.stage, r.system, r.priority); err != nil {
			return err
		}
	}
	return nil
}
