package system

import (
	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/engine"
)

// MotionSystem integrates velocity into position once per tick
type MotionSystem struct {
	engine.SystemBase

	positions *engine.View[component.PositionComponent]
	kinetics  *engine.View[component.KineticComponent]
}

// NewMotionSystem creates a new motion system
func NewMotionSystem(w *engine.World) *MotionSystem {
	return &MotionSystem{
		positions: engine.Store[component.PositionComponent](w),
		kinetics:  engine.Store[component.KineticComponent](w),
	}
}

// Execute moves every entity that has both position and velocity
func (s *MotionSystem) Execute(*engine.World) {
	for e, k := range s.kinetics.All() {
		pos, err := s.positions.GetMutable(e)
		if err != nil {
			continue
		}
		pos.X += k.VelX
		pos.Y += k.VelY
	}
}
