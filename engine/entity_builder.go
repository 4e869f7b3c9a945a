package engine

import (
	"github.com/rotisserie/eris"

	"github.com/lixenwraith/tickworld/core"
)

// EntityBuilder creates an entity and attaches components fluently.
// The first failure sticks; Build then destroys the entity so no half-built
// entity remains in the world.
//
// Example usage:
//
//	e, err := With(With(world.NewEntity(), Position{X: 1}), Velocity{DX: 2}).Build()
type EntityBuilder struct {
	world  *World
	entity core.Entity
	err    error
	built  bool
}

// NewEntity reserves an entity id and returns a builder for it
func (w *World) NewEntity() *EntityBuilder {
	e, err := w.CreateEntity()
	return &EntityBuilder{
		world:  w,
		entity: e,
		err:    err,
	}
}

// With attaches a component of type T to the entity being built.
// Panics if called after Build().
func With[T any](eb *EntityBuilder, component T) *EntityBuilder {
	if eb.built {
		panic("entity already built - cannot add components after Build()")
	}
	if eb.err != nil {
		return eb
	}
	if err := AddComponent(eb.world, eb.entity, component); err != nil {
		eb.err = eris.Wrapf(err, "build entity %d", eb.entity)
	}
	return eb
}

// Entity returns the reserved id, NullEntity if reservation failed
func (eb *EntityBuilder) Entity() core.Entity { return eb.entity }

// Build finalizes construction and returns the entity or the first error
func (eb *EntityBuilder) Build() (core.Entity, error) {
	eb.built = true
	if eb.err != nil {
		if eb.entity != core.NullEntity {
			eb.world.DestroyEntity(eb.entity)
		}
		return core.NullEntity, eb.err
	}
	return eb.entity, nil
}
