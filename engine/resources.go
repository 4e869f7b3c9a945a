package engine

import (
	"reflect"
	"sync"
	"time"
)

// ResourceStore is a thread-safe container for typed world singletons.
// Systems reach shared data (time, bounds, config) without coupling to the driver.
type ResourceStore struct {
	mu        sync.RWMutex
	resources map[reflect.Type]any
}

// NewResourceStore creates a new empty resource store
func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		resources: make(map[reflect.Type]any),
	}
}

// AddResource registers or replaces the resource of type T.
// Use pointer types for resources that systems mutate.
func AddResource[T any](rs *ResourceStore, resource T) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.resources[reflect.TypeFor[T]()] = resource
}

// GetResource retrieves the resource of type T
func GetResource[T any](rs *ResourceStore) (T, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	val, ok := rs.resources[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGetResource retrieves a resource or panics if missing
func MustGetResource[T any](rs *ResourceStore) T {
	res, ok := GetResource[T](rs)
	if !ok {
		panic("required resource not found: " + reflect.TypeFor[T]().String())
	}
	return res
}

// RemoveResource deletes the resource of type T, false if absent
func RemoveResource[T any](rs *ResourceStore) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	t := reflect.TypeFor[T]()
	if _, ok := rs.resources[t]; !ok {
		return false
	}
	delete(rs.resources, t)
	return true
}

// TimeResource carries the current tick's timing to systems.
// Updated by the tick consumer before each schedule run.
type TimeResource struct {
	// GameTime is pause-aware simulation time
	GameTime time.Time

	// DeltaTime is the fixed tick interval
	DeltaTime time.Duration

	// Tick is the driver's tick number, starting at 1
	Tick uint64

	// TargetTPS is the configured tick rate
	TargetTPS int
}

// Update modifies TimeResource fields in-place
// Must be called under the world lock so systems never observe a torn update
func (tr *TimeResource) Update(ev TickEvent) {
	tr.GameTime = ev.GameTime
	tr.DeltaTime = ev.Interval
	tr.Tick = ev.Tick
	tr.TargetTPS = ev.TargetTPS
}
