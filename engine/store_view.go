package engine

import (
	"iter"

	"github.com/lixenwraith/tickworld/core"
)

// View is a world-owned store seen from a system or reader.
// Values may be modified in place through GetMutable or All; adding and
// removing components goes through the World so teardown stays complete.
type View[T any] struct {
	set *SparseSet[T]
}

// TypeID returns the component type id
func (v *View[T]) TypeID() TypeID { return v.set.TypeID() }

// Len returns the number of live entries
func (v *View[T]) Len() int { return v.set.Len() }

// Has reports whether e has a T
func (v *View[T]) Has(e core.Entity) bool { return v.set.Has(e) }

// IndexOf returns e's dense index
func (v *View[T]) IndexOf(e core.Entity) (int, bool) { return v.set.IndexOf(e) }

// TryGet returns e's T and whether it exists
func (v *View[T]) TryGet(e core.Entity) (T, bool) { return v.set.TryGet(e) }

// Get returns a copy of e's T; ErrComponentNotFound if absent
func (v *View[T]) Get(e core.Entity) (T, error) { return v.set.Get(e) }

// GetMutable returns a pointer into e's dense slot, valid until the next structural change
func (v *View[T]) GetMutable(e core.Entity) (*T, error) { return v.set.GetMutable(e) }

// Values returns the dense value column, no copy
func (v *View[T]) Values() []T { return v.set.Values() }

// Entities returns the dense entity column, no copy
func (v *View[T]) Entities() []core.Entity { return v.set.Entities() }

// Dense returns both dense columns
func (v *View[T]) Dense() ([]core.Entity, []T) { return v.set.Dense() }

// All iterates live entries in dense order with a pointer to each value
func (v *View[T]) All() iter.Seq2[core.Entity, *T] { return v.set.All() }
