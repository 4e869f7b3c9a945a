package engine

import (
	"iter"
	"math/bits"

	"github.com/rotisserie/eris"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/parameter"
)

const (
	// emptySlot marks an unused sparse slot
	emptySlot int32 = -1
	// pendingRemoval tags a live slot during batched compaction
	pendingRemoval int32 = -2
)

// SparseSet stores one component type T for many entities.
// Dense columns (entities, values) hold exactly Len() live entries with no gaps;
// a paged sparse index maps entity id to dense index in O(1).
// Not safe for concurrent use.
type SparseSet[T any] struct {
	typeID TypeID

	entities []core.Entity
	values   []T
	pages    [][]int32

	pageShift uint
	pageMask  uint32
	pageSize  int
	maxEntity core.Entity
	growStep  int
}

type sparseSetConfig struct {
	pageSize        int
	maxEntity       core.Entity
	initialCapacity int
	growStep        int
}

// SparseSetOption configures a SparseSet
type SparseSetOption func(*sparseSetConfig)

// WithPageSize sets ids per sparse page; values that are not a power of two are rounded up
func WithPageSize(n int) SparseSetOption {
	return func(c *sparseSetConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxEntity rejects ids above limit, bounding sparse page allocation
func WithMaxEntity(limit core.Entity) SparseSetOption {
	return func(c *sparseSetConfig) {
		if limit > core.NullEntity {
			c.maxEntity = limit
		}
	}
}

// WithInitialCapacity preallocates the dense columns
func WithInitialCapacity(n int) SparseSetOption {
	return func(c *sparseSetConfig) {
		if n >= 0 {
			c.initialCapacity = n
		}
	}
}

// WithGrowStep sets the minimum number of slots added on growth
func WithGrowStep(n int) SparseSetOption {
	return func(c *sparseSetConfig) {
		if n > 0 {
			c.growStep = n
		}
	}
}

func newSparseSetConfig(opts ...SparseSetOption) sparseSetConfig {
	cfg := sparseSetConfig{
		pageSize:        parameter.DefaultPageSize,
		maxEntity:       parameter.DefaultMaxEntity,
		initialCapacity: parameter.DefaultDenseCapacity,
		growStep:        parameter.DefaultGrowStep,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewSparseSet creates an empty set for component type T
func NewSparseSet[T any](opts ...SparseSetOption) *SparseSet[T] {
	cfg := newSparseSetConfig(opts...)
	pageSize := nextPowerOfTwo(cfg.pageSize)
	shift := uint(bits.TrailingZeros(uint(pageSize)))
	capacity := alignCapacity(cfg.initialCapacity)

	return &SparseSet[T]{
		entities:  make([]core.Entity, 0, capacity),
		values:    make([]T, 0, capacity),
		pageShift: shift,
		pageMask:  uint32(pageSize - 1),
		pageSize:  pageSize,
		maxEntity: cfg.maxEntity,
		growStep:  cfg.growStep,
	}
}

// TypeID returns the registry type id this set was created for (0 for standalone sets)
func (s *SparseSet[T]) TypeID() TypeID { return s.typeID }

// Len returns the number of live entries
func (s *SparseSet[T]) Len() int { return len(s.entities) }

// Cap returns the dense capacity
func (s *SparseSet[T]) Cap() int { return cap(s.entities) }

// PageSize returns ids per sparse page
func (s *SparseSet[T]) PageSize() int { return s.pageSize }

// PageCount returns the number of allocated sparse pages
func (s *SparseSet[T]) PageCount() int {
	n := 0
	for _, p := range s.pages {
		if p != nil {
			n++
		}
	}
	return n
}

// Add inserts a component for e
func (s *SparseSet[T]) Add(e core.Entity, value T) error {
	if e == core.NullEntity || e > s.maxEntity {
		return eris.Wrapf(ErrInvalidEntity, "entity %d outside (0, %d]", e, s.maxEntity)
	}
	if s.Has(e) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d", e)
	}
	s.insert(e, value)
	return nil
}

// TryAdd is Add without an error; false on duplicate or out-of-range id
func (s *SparseSet[T]) TryAdd(e core.Entity, value T) bool {
	if e == core.NullEntity || e > s.maxEntity || s.Has(e) {
		return false
	}
	s.insert(e, value)
	return true
}

// Set inserts or overwrites the component for e
func (s *SparseSet[T]) Set(e core.Entity, value T) error {
	if idx, ok := s.IndexOf(e); ok {
		s.values[idx] = value
		return nil
	}
	return s.Add(e, value)
}

// Has reports whether e has a component in this set
func (s *SparseSet[T]) Has(e core.Entity) bool {
	_, ok := s.IndexOf(e)
	return ok
}

// IndexOf returns the dense index of e
func (s *SparseSet[T]) IndexOf(e core.Entity) (int, bool) {
	idx := s.slot(e)
	if idx < 0 || int(idx) >= len(s.entities) || s.entities[idx] != e {
		return 0, false
	}
	return int(idx), true
}

// Get returns a copy of the component for e
func (s *SparseSet[T]) Get(e core.Entity) (T, error) {
	if idx, ok := s.IndexOf(e); ok {
		return s.values[idx], nil
	}
	var zero T
	return zero, eris.Wrapf(ErrComponentNotFound, "entity %d", e)
}

// TryGet returns the component for e and whether it exists
func (s *SparseSet[T]) TryGet(e core.Entity) (T, bool) {
	if idx, ok := s.IndexOf(e); ok {
		return s.values[idx], true
	}
	var zero T
	return zero, false
}

// GetMutable returns a pointer into the dense slot of e.
// The pointer is invalidated by the next Add, Remove or Clear on this set.
func (s *SparseSet[T]) GetMutable(e core.Entity) (*T, error) {
	if idx, ok := s.IndexOf(e); ok {
		return &s.values[idx], nil
	}
	return nil, eris.Wrapf(ErrComponentNotFound, "entity %d", e)
}

// Remove deletes the component for e with swap-and-pop.
// Only the last dense entry moves; it takes the removed slot.
func (s *SparseSet[T]) Remove(e core.Entity) bool {
	idx, ok := s.IndexOf(e)
	if !ok {
		return false
	}

	last := len(s.entities) - 1
	if idx != last {
		moved := s.entities[last]
		s.entities[idx] = moved
		s.values[idx] = s.values[last]
		s.setSlot(moved, int32(idx))
	}
	s.setSlot(e, emptySlot)

	var zero T
	s.values[last] = zero
	s.entities = s.entities[:last]
	s.values = s.values[:last]
	return true
}

// RemoveBatch removes every listed entity in one compaction pass and returns the count removed
func (s *SparseSet[T]) RemoveBatch(es []core.Entity) int {
	marked := 0
	for _, e := range es {
		if s.Has(e) {
			s.setSlot(e, pendingRemoval)
			marked++
		}
	}
	if marked == 0 {
		return 0
	}
	return s.compact(func(i int) bool {
		return s.slot(s.entities[i]) == pendingRemoval
	})
}

// RemoveWhere removes every entry matching pred in one compaction pass and returns the count removed
func (s *SparseSet[T]) RemoveWhere(pred func(e core.Entity, value T) bool) int {
	if len(s.entities) == 0 {
		return 0
	}
	return s.compact(func(i int) bool {
		return pred(s.entities[i], s.values[i])
	})
}

// Clear drops every entry; dense capacity is kept for reuse
func (s *SparseSet[T]) Clear() {
	clear(s.values)
	s.entities = s.entities[:0]
	s.values = s.values[:0]
	for i := range s.pages {
		s.pages[i] = nil
	}
}

// Values returns the live dense values, valid until the next structural mutation
func (s *SparseSet[T]) Values() []T { return s.values }

// Entities returns the live dense entity column, parallel to Values
func (s *SparseSet[T]) Entities() []core.Entity { return s.entities }

// Dense returns both dense columns; entities[i] owns values[i]
func (s *SparseSet[T]) Dense() ([]core.Entity, []T) { return s.entities, s.values }

// All iterates live entries in dense order with a pointer to each value.
// Do not add or remove on this set while iterating.
func (s *SparseSet[T]) All() iter.Seq2[core.Entity, *T] {
	return func(yield func(core.Entity, *T) bool) {
		for i := range s.entities {
			if !yield(s.entities[i], &s.values[i]) {
				return
			}
		}
	}
}

func (s *SparseSet[T]) insert(e core.Entity, value T) {
	if len(s.entities) == cap(s.entities) {
		s.grow()
	}
	s.setSlot(e, int32(len(s.entities)))
	s.entities = append(s.entities, e)
	s.values = append(s.values, value)
}

// grow resizes the dense columns to max(cap*2, cap+growStep), aligned
func (s *SparseSet[T]) grow() {
	c := cap(s.entities)
	newCap := max(c*2, c+s.growStep)
	newCap = alignCapacity(newCap)

	entities := make([]core.Entity, len(s.entities), newCap)
	copy(entities, s.entities)
	values := make([]T, len(s.values), newCap)
	copy(values, s.values)
	s.entities = entities
	s.values = values
}

// compact keeps entries for which drop is false, preserving their relative order,
// and patches the sparse slot of each kept entry that moved
func (s *SparseSet[T]) compact(drop func(i int) bool) int {
	n := len(s.entities)
	write := 0
	for read := 0; read < n; read++ {
		e := s.entities[read]
		if drop(read) {
			s.setSlot(e, emptySlot)
			continue
		}
		if write != read {
			s.entities[write] = e
			s.values[write] = s.values[read]
			s.setSlot(e, int32(write))
		}
		write++
	}

	clear(s.values[write:n])
	s.entities = s.entities[:write]
	s.values = s.values[:write]
	return n - write
}

func (s *SparseSet[T]) slot(e core.Entity) int32 {
	page := uint32(e) >> s.pageShift
	if int(page) >= len(s.pages) {
		return emptySlot
	}
	p := s.pages[page]
	if p == nil {
		return emptySlot
	}
	return p[uint32(e)&s.pageMask]
}

// setSlot writes a sparse mapping, allocating the page on first write
func (s *SparseSet[T]) setSlot(e core.Entity, idx int32) {
	page := int(uint32(e) >> s.pageShift)
	if page >= len(s.pages) {
		if idx == emptySlot {
			return
		}
		pages := make([][]int32, page+1)
		copy(pages, s.pages)
		s.pages = pages
	}
	p := s.pages[page]
	if p == nil {
		if idx == emptySlot {
			return
		}
		p = make([]int32, s.pageSize)
		for i := range p {
			p[i] = emptySlot
		}
		s.pages[page] = p
	}
	p[uint32(e)&s.pageMask] = idx
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func alignCapacity(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + parameter.DenseAlign - 1) / parameter.DenseAlign * parameter.DenseAlign
}
