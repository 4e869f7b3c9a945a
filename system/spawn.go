package system

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/parameter"
)

var spawnRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

// SpawnSystem keeps the glyph population at a target size.
// Entities are built whole through EntityBuilder, at most SpawnPerTick per tick.
type SpawnSystem struct {
	engine.SystemBase

	target int
	rng    *rand.Rand
	log    logrus.FieldLogger

	glyphs *engine.View[component.GlyphComponent]
}

// NewSpawnSystem creates a spawner maintaining target entities
func NewSpawnSystem(w *engine.World, target int, seed int64, log logrus.FieldLogger) *SpawnSystem {
	return &SpawnSystem{
		target: target,
		rng:    rand.New(rand.NewSource(seed)),
		log:    log.WithField("system", "spawn"),
		glyphs: engine.Store[component.GlyphComponent](w),
	}
}

// ShouldExecute skips the tick when the population is already full
func (s *SpawnSystem) ShouldExecute(*engine.World) bool {
	return s.glyphs.Len() < s.target
}

// Execute creates entities up to the per-tick cap
func (s *SpawnSystem) Execute(w *engine.World) {
	arena := engine.MustGetResource[*component.ArenaResource](w.Resources)
	n := min(s.target-s.glyphs.Len(), parameter.SpawnPerTick)

	for i := 0; i < n; i++ {
		b := w.NewEntity()
		b = engine.With(b, component.PositionComponent{
			X: s.rng.Float64() * arena.Width,
			Y: s.rng.Float64() * arena.Height,
		})
		b = engine.With(b, component.KineticComponent{
			VelX: (s.rng.Float64()*2 - 1) * parameter.MaxSpeed,
			VelY: (s.rng.Float64()*2 - 1) * parameter.MaxSpeed / 2,
		})
		b = engine.With(b, component.GlyphComponent{
			Rune: spawnRunes[s.rng.Intn(len(spawnRunes))],
			Type: component.GlyphType(s.rng.Intn(component.GlyphTypeCount)),
		})
		b = engine.With(b, component.TimerComponent{
			Remaining: parameter.LifetimeMinTicks + s.rng.Intn(parameter.LifetimeMaxTicks-parameter.LifetimeMinTicks+1),
		})
		if _, err := b.Build(); err != nil {
			s.log.WithError(err).Warn("spawn failed")
			return
		}
	}
}
