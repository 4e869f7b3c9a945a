package system

import (
	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
)

// TimerSystem counts lifetimes down and tags expired entities for destruction
// It runs before CullSystem so other systems can react to the tag within the tick
type TimerSystem struct {
	engine.SystemBase

	timers  *engine.View[component.TimerComponent]
	expired []core.Entity
}

// NewTimerSystem creates a new timer system
func NewTimerSystem(w *engine.World) *TimerSystem {
	return &TimerSystem{
		timers: engine.Store[component.TimerComponent](w),
	}
}

// Execute decrements timers and handles expiration
func (s *TimerSystem) Execute(w *engine.World) {
	s.expired = s.expired[:0]
	for e, t := range s.timers.All() {
		t.Remaining--
		if t.Remaining <= 0 {
			s.expired = append(s.expired, e)
		}
	}

	// Structural changes after iteration
	for _, e := range s.expired {
		engine.RemoveComponent[component.TimerComponent](w, e)
		if err := engine.SetComponent(w, e, component.DeathComponent{}); err != nil {
			w.Logger().WithError(err).WithField("entity", e).Warn("mark expired failed")
		}
	}
}
