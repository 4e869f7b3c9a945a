package engine

import "github.com/lixenwraith/tickworld/core"

// ReadStore is the type-erased read surface of a store, used by queries and tooling
type ReadStore interface {
	// TypeID returns the component type id of the store
	TypeID() TypeID

	// Has reports whether the entity has this component
	Has(e core.Entity) bool

	// Len returns the number of live components
	Len() int

	// Entities returns the dense entity column; callers must not mutate it
	Entities() []core.Entity
}

// AnyStore is the type-erased face of a SparseSet[T] held by the registry.
// Structural mutation stays inside the registry so the owned-types index
// always matches store contents.
type AnyStore interface {
	ReadStore

	// Remove deletes the entity's component, false if absent
	Remove(e core.Entity) bool

	// RemoveBatch deletes the listed entities in one compaction pass
	RemoveBatch(es []core.Entity) int

	// Clear removes all components
	Clear()
}

var (
	_ AnyStore  = (*SparseSet[struct{}])(nil)
	_ ReadStore = (*View[struct{}])(nil)
)
