package engine

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/status"
)

// World owns the entity allocator, every component store and the typed resources.
// All structural mutation happens on one goroutine (the tick consumer).
// Readers on other goroutines serialize through RunSafe.
type World struct {
	allocator  *EntityAllocator
	components *ComponentRegistry

	// Resources holds typed singletons (time, bounds, config) shared by systems
	Resources *ResourceStore

	log         logrus.FieldLogger
	statusReg   *status.Registry
	statEnts    *status.AtomicFloat
	statComps   *status.AtomicFloat
	updateMutex sync.Mutex
}

type worldConfig struct {
	log       logrus.FieldLogger
	statusReg *status.Registry
	allocOpts []AllocatorOption
	setOpts   []SparseSetOption
	types     *TypeRegistry
}

// WorldOption configures a World
type WorldOption func(*worldConfig)

// WithLogger sets the world logger; a discard logger is used otherwise
func WithLogger(l logrus.FieldLogger) WorldOption {
	return func(c *worldConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithStatus publishes entity and component gauges into reg
func WithStatus(reg *status.Registry) WorldOption {
	return func(c *worldConfig) { c.statusReg = reg }
}

// WithAllocator passes options to the world's entity allocator
func WithAllocator(opts ...AllocatorOption) WorldOption {
	return func(c *worldConfig) { c.allocOpts = append(c.allocOpts, opts...) }
}

// WithSparseSetOptions passes options to every component store the world creates
func WithSparseSetOptions(opts ...SparseSetOption) WorldOption {
	return func(c *worldConfig) { c.setOpts = append(c.setOpts, opts...) }
}

// WithTypeRegistry shares a type registry, e.g. between a world and a tool that pre-registers types
func WithTypeRegistry(tr *TypeRegistry) WorldOption {
	return func(c *worldConfig) { c.types = tr }
}

// NewWorld creates an empty world with a TimeResource installed
func NewWorld(opts ...WorldOption) *World {
	cfg := worldConfig{
		log: core.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Ids past the store limit could never hold components; an explicit ceiling still wins
	setCfg := newSparseSetConfig(cfg.setOpts...)
	allocOpts := append([]AllocatorOption{WithIDCeiling(setCfg.maxEntity + 1)}, cfg.allocOpts...)

	w := &World{
		allocator:  NewEntityAllocator(allocOpts...),
		components: NewComponentRegistry(cfg.types, cfg.setOpts...),
		Resources:  NewResourceStore(),
		log:        cfg.log.WithField("component", "world"),
		statusReg:  cfg.statusReg,
	}
	if w.statusReg != nil {
		w.statEnts = w.statusReg.Gauge(status.KeyWorldEntities)
		w.statComps = w.statusReg.Gauge(status.KeyWorldComponents)
	}
	AddResource(w.Resources, &TimeResource{})
	return w
}

// Registry exposes the component registry for type-erased access (queries, tooling)
func (w *World) Registry() *ComponentRegistry { return w.components }

// Allocator exposes the entity allocator
func (w *World) Allocator() *EntityAllocator { return w.allocator }

// Logger returns the world's logger
func (w *World) Logger() logrus.FieldLogger { return w.log }

// CreateEntity issues a new entity id
func (w *World) CreateEntity() (core.Entity, error) {
	return w.allocator.Create()
}

// CreateEntities issues n contiguous fresh entity ids
func (w *World) CreateEntities(n int) ([]core.Entity, error) {
	return w.allocator.CreateBatch(n)
}

// DestroyEntity removes every component of e and releases its id.
// Components are removed first so a recycled id never inherits stale data.
func (w *World) DestroyEntity(e core.Entity) bool {
	if !w.allocator.Contains(e) {
		return false
	}
	w.components.RemoveAll(e)
	w.allocator.Remove(e)
	return true
}

// DestroyEntities destroys each live entity in es and returns the count destroyed
func (w *World) DestroyEntities(es []core.Entity) int {
	n := 0
	for _, e := range es {
		if !w.allocator.Contains(e) {
			continue
		}
		w.components.RemoveAll(e)
		w.allocator.Remove(e)
		n++
	}
	return n
}

// ContainsEntity reports whether e is a live entity
func (w *World) ContainsEntity(e core.Entity) bool {
	return w.allocator.Contains(e)
}

// EntityCount returns the number of live entities
func (w *World) EntityCount() int { return w.allocator.Live() }

// ComponentCount returns the number of live components across all types
func (w *World) ComponentCount() int { return w.components.ComponentCount() }

// Clear destroys every entity and component; resources are kept
func (w *World) Clear() {
	w.components.Clear()
	w.allocator.Reset()
	w.log.Debug("world cleared")
}

// RunSafe executes fn while holding the world's update lock
func (w *World) RunSafe(fn func()) {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	fn()
}

// Lock acquires the world's update mutex
func (w *World) Lock() {
	w.updateMutex.Lock()
}

// TryLock attempts to acquire the update mutex without blocking
func (w *World) TryLock() bool {
	return w.updateMutex.TryLock()
}

// Unlock releases the update mutex
func (w *World) Unlock() {
	w.updateMutex.Unlock()
}

// PublishStatus writes entity and component counts to the status registry, if any
func (w *World) PublishStatus() {
	if w.statusReg == nil {
		return
	}
	w.statEnts.Set(float64(w.EntityCount()))
	w.statComps.Set(float64(w.ComponentCount()))
}

// AddComponent attaches v to the live entity e
func AddComponent[T any](w *World, e core.Entity, v T) error {
	if !w.allocator.Contains(e) {
		return eris.Wrapf(ErrInvalidEntity, "entity %d is not alive", e)
	}
	return Add(w.components, e, v)
}

// AddComponents attaches the same value to every entity in es, stopping at the first failure
func AddComponents[T any](w *World, es []core.Entity, v T) error {
	for _, e := range es {
		if err := AddComponent(w, e, v); err != nil {
			return eris.Wrapf(err, "batch add at entity %d", e)
		}
	}
	return nil
}

// SetComponent attaches or overwrites e's T
func SetComponent[T any](w *World, e core.Entity, v T) error {
	if !w.allocator.Contains(e) {
		return eris.Wrapf(ErrInvalidEntity, "entity %d is not alive", e)
	}
	return Set(w.components, e, v)
}

// GetComponent returns a copy of e's T
func GetComponent[T any](w *World, e core.Entity) (T, error) {
	return Get[T](w.components, e)
}

// TryGetComponent returns e's T and whether it exists
func TryGetComponent[T any](w *World, e core.Entity) (T, bool) {
	return TryGet[T](w.components, e)
}

// GetComponentMutable returns a pointer to e's T, valid until the next structural change of that store
func GetComponentMutable[T any](w *World, e core.Entity) (*T, error) {
	return GetMutable[T](w.components, e)
}

// RemoveComponent detaches e's T, false if absent
func RemoveComponent[T any](w *World, e core.Entity) bool {
	return Remove[T](w.components, e)
}

// HasComponent reports whether e has a T
func HasComponent[T any](w *World, e core.Entity) bool {
	return Has[T](w.components, e)
}

// Components returns the dense value column of T, no copy
func Components[T any](w *World) []T {
	return storeOf[T](w.components).Values()
}

// ComponentColumns returns the dense entity and value columns of T, no copy
func ComponentColumns[T any](w *World) ([]core.Entity, []T) {
	return storeOf[T](w.components).Dense()
}

// Store returns a view of T's store for iteration and queries
func Store[T any](w *World) *View[T] {
	return &View[T]{set: storeOf[T](w.components)}
}
