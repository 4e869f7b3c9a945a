package engine

import (
	"reflect"
	"sync"
)

// TypeID is a small, stable per-registry identifier for a component type
type TypeID uint32

// TypeRegistry assigns TypeIDs on first use of a component type.
// One instance per world, so independent worlds never share or collide ids.
// Lookups take a read lock; only first registration of a type takes the write lock.
type TypeRegistry struct {
	mu    sync.RWMutex
	ids   map[reflect.Type]TypeID
	names []string
}

// NewTypeRegistry creates an empty registry
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		ids: make(map[reflect.Type]TypeID),
	}
}

// TypeIDOf returns the id of T, assigning the next id if T is new
func TypeIDOf[T any](tr *TypeRegistry) TypeID {
	return tr.idOf(reflect.TypeFor[T]())
}

func (tr *TypeRegistry) idOf(t reflect.Type) TypeID {
	tr.mu.RLock()
	id, ok := tr.ids[t]
	tr.mu.RUnlock()
	if ok {
		return id
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := tr.ids[t]; ok {
		return id
	}
	id = TypeID(len(tr.names))
	tr.ids[t] = id
	tr.names = append(tr.names, t.String())
	return id
}

// Lookup returns the id of T without assigning one
func Lookup[T any](tr *TypeRegistry) (TypeID, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	id, ok := tr.ids[reflect.TypeFor[T]()]
	return id, ok
}

// Name returns the Go type name registered under id
func (tr *TypeRegistry) Name(id TypeID) string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if int(id) >= len(tr.names) {
		return ""
	}
	return tr.names[id]
}

// Len returns the number of registered types
func (tr *TypeRegistry) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.names)
}
