package system

import (
	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
)

// CullSystem removes entities marked for destruction
// It runs last in the tick to allow other systems to react to the tagged state
type CullSystem struct {
	engine.SystemBase

	deaths  *engine.View[component.DeathComponent]
	scratch []core.Entity
	culled  uint64
}

// NewCullSystem creates a new cull system
func NewCullSystem(w *engine.World) *CullSystem {
	return &CullSystem{
		deaths: engine.Store[component.DeathComponent](w),
	}
}

// ShouldExecute skips ticks with nothing tagged
func (s *CullSystem) ShouldExecute(*engine.World) bool {
	return s.deaths.Len() > 0
}

// Execute destroys every tagged entity with all of its components
func (s *CullSystem) Execute(w *engine.World) {
	// Copy: destroying shrinks the death store's dense column
	s.scratch = append(s.scratch[:0], s.deaths.Entities()...)
	s.culled += uint64(w.DestroyEntities(s.scratch))
}

// Culled returns the number of entities destroyed so far
func (s *CullSystem) Culled() uint64 { return s.culled }
