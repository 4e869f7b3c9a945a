package engine

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/lixenwraith/tickworld/core"
)

// ComponentRegistry owns one SparseSet per component type and the
// entity -> owned types reverse index used for whole-entity teardown.
// Not safe for concurrent mutation; only type id assignment is synchronized.
type ComponentRegistry struct {
	types   *TypeRegistry
	stores  []AnyStore
	owned   map[core.Entity][]TypeID
	setOpts []SparseSetOption
}

// NewComponentRegistry creates a registry; opts apply to every store it creates
func NewComponentRegistry(types *TypeRegistry, opts ...SparseSetOption) *ComponentRegistry {
	if types == nil {
		types = NewTypeRegistry()
	}
	return &ComponentRegistry{
		types:   types,
		owned:   make(map[core.Entity][]TypeID),
		setOpts: opts,
	}
}

// Types returns the type registry backing this registry
func (r *ComponentRegistry) Types() *TypeRegistry { return r.types }

// storeOf returns the store for T, creating it on first use
func storeOf[T any](r *ComponentRegistry) *SparseSet[T] {
	id := TypeIDOf[T](r.types)
	if int(id) < len(r.stores) {
		if s := r.stores[id]; s != nil {
			return s.(*SparseSet[T])
		}
	} else {
		r.stores = append(r.stores, make([]AnyStore, int(id)+1-len(r.stores))...)
	}

	s := NewSparseSet[T](r.setOpts...)
	s.typeID = id
	r.stores[id] = s
	return s
}

// Add attaches value to e; ErrDuplicateComponent if e already has a T
func Add[T any](r *ComponentRegistry, e core.Entity, value T) error {
	s := storeOf[T](r)
	if err := s.Add(e, value); err != nil {
		return eris.Wrapf(err, "add %s", r.types.Name(s.typeID))
	}
	r.own(e, s.typeID)
	return nil
}

// Set attaches or overwrites value on e
func Set[T any](r *ComponentRegistry, e core.Entity, value T) error {
	s := storeOf[T](r)
	if err := s.Set(e, value); err != nil {
		return eris.Wrapf(err, "set %s", r.types.Name(s.typeID))
	}
	r.own(e, s.typeID)
	return nil
}

// Get returns e's T; ErrComponentNotFound if absent
func Get[T any](r *ComponentRegistry, e core.Entity) (T, error) {
	s := storeOf[T](r)
	v, err := s.Get(e)
	if err != nil {
		return v, eris.Wrapf(err, "get %s", r.types.Name(s.typeID))
	}
	return v, nil
}

// TryGet returns e's T and whether it exists
func TryGet[T any](r *ComponentRegistry, e core.Entity) (T, bool) {
	return storeOf[T](r).TryGet(e)
}

// GetMutable returns a pointer to e's T inside the dense store
func GetMutable[T any](r *ComponentRegistry, e core.Entity) (*T, error) {
	s := storeOf[T](r)
	p, err := s.GetMutable(e)
	if err != nil {
		return nil, eris.Wrapf(err, "get mutable %s", r.types.Name(s.typeID))
	}
	return p, nil
}

// Has reports whether e has a T
func Has[T any](r *ComponentRegistry, e core.Entity) bool {
	return storeOf[T](r).Has(e)
}

// Remove detaches e's T, false if absent
func Remove[T any](r *ComponentRegistry, e core.Entity) bool {
	s := storeOf[T](r)
	if !s.Remove(e) {
		return false
	}
	r.disown(e, s.typeID)
	return true
}

// RemoveAll detaches every component e owns and returns the number of stores touched.
// An entity that owns nothing is a no-op.
func (r *ComponentRegistry) RemoveAll(e core.Entity) int {
	ids, ok := r.owned[e]
	if !ok {
		return 0
	}
	for _, id := range ids {
		r.stores[id].Remove(e)
	}
	delete(r.owned, e)
	return len(ids)
}

// Owned returns a copy of the type ids e owns
func (r *ComponentRegistry) Owned(e core.Entity) []TypeID {
	return slices.Clone(r.owned[e])
}

// Store returns the read surface of the store for id, nil if none was created
func (r *ComponentRegistry) Store(id TypeID) ReadStore {
	if int(id) >= len(r.stores) {
		return nil
	}
	return r.stores[id]
}

// ComponentCount returns the number of live components across all stores
func (r *ComponentRegistry) ComponentCount() int {
	n := 0
	for _, s := range r.stores {
		if s != nil {
			n += s.Len()
		}
	}
	return n
}

// StoreCount returns the number of stores created
func (r *ComponentRegistry) StoreCount() int {
	n := 0
	for _, s := range r.stores {
		if s != nil {
			n++
		}
	}
	return n
}

// Clear empties every store and the reverse index
func (r *ComponentRegistry) Clear() {
	for _, s := range r.stores {
		if s != nil {
			s.Clear()
		}
	}
	clear(r.owned)
}

func (r *ComponentRegistry) own(e core.Entity, id TypeID) {
	ids := r.owned[e]
	if slices.Contains(ids, id) {
		return
	}
	r.owned[e] = append(ids, id)
}

func (r *ComponentRegistry) disown(e core.Entity, id TypeID) {
	ids := r.owned[e]
	i := slices.Index(ids, id)
	if i < 0 {
		return
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		delete(r.owned, e)
		return
	}
	r.owned[e] = ids
}
