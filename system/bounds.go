package system

import (
	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/engine"
)

// BoundsSystem keeps moving entities inside the arena by reflecting them off its edges
type BoundsSystem struct {
	engine.SystemBase

	positions *engine.View[component.PositionComponent]
	kinetics  *engine.View[component.KineticComponent]
}

// NewBoundsSystem creates a new bounds system
func NewBoundsSystem(w *engine.World) *BoundsSystem {
	return &BoundsSystem{
		positions: engine.Store[component.PositionComponent](w),
		kinetics:  engine.Store[component.KineticComponent](w),
	}
}

// Execute reflects positions and velocities that left the arena
func (s *BoundsSystem) Execute(w *engine.World) {
	arena := engine.MustGetResource[*component.ArenaResource](w.Resources)

	for e, k := range s.kinetics.All() {
		pos, err := s.positions.GetMutable(e)
		if err != nil {
			continue
		}
		pos.X, k.VelX = bounce(pos.X, k.VelX, arena.Width)
		pos.Y, k.VelY = bounce(pos.Y, k.VelY, arena.Height)
	}
}

// bounce folds p back into [0, limit) and flips v when p crossed an edge
func bounce(p, v, limit float64) (float64, float64) {
	switch {
	case limit <= 0:
		return 0, v
	case p < 0:
		return min(-p, limit-1e-9), -v
	case p >= limit:
		return max(2*limit-p-1e-9, 0), -v
	}
	return p, v
}
