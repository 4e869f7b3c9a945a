package engine

import (
	"github.com/rotisserie/eris"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/parameter"
)

// EntityAllocator issues and recycles entity ids.
// Fresh ids are monotonic from 1; released ids go to a bounded pool and are
// discarded for good once the pool is full. Reuse order is unspecified.
// Not safe for concurrent use; the tick goroutine is the single writer.
type EntityAllocator struct {
	next    core.Entity
	ceiling core.Entity
	live    map[core.Entity]struct{}
	pool    map[core.Entity]struct{}
	poolCap int
	retired uint64
}

// AllocatorOption configures an EntityAllocator
type AllocatorOption func(*EntityAllocator)

// WithRecycleCapacity bounds the recycle pool; 0 disables recycling
func WithRecycleCapacity(n int) AllocatorOption {
	return func(a *EntityAllocator) {
		if n >= 0 {
			a.poolCap = n
		}
	}
}

// WithIDCeiling lowers the reserved exhaustion value, mainly for tests
func WithIDCeiling(ceiling core.Entity) AllocatorOption {
	return func(a *EntityAllocator) {
		if ceiling > core.NullEntity {
			a.ceiling = ceiling
		}
	}
}

// NewEntityAllocator creates an allocator whose first id is 1
func NewEntityAllocator(opts ...AllocatorOption) *EntityAllocator {
	a := &EntityAllocator{
		next:    1,
		ceiling: core.MaxEntity,
		live:    make(map[core.Entity]struct{}),
		pool:    make(map[core.Entity]struct{}),
		poolCap: parameter.DefaultRecycleCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Create returns a recycled id when one is pooled, otherwise the next fresh id
func (a *EntityAllocator) Create() (core.Entity, error) {
	for e := range a.pool {
		delete(a.pool, e)
		a.live[e] = struct{}{}
		return e, nil
	}

	if a.next >= a.ceiling {
		return core.NullEntity, eris.Wrapf(ErrEntityIDSpaceExhausted, "next id %d reached ceiling %d", a.next, a.ceiling)
	}
	e := a.next
	a.next++
	a.live[e] = struct{}{}
	return e, nil
}

// CreateBatch reserves n contiguous fresh ids; the recycle pool is not consulted
func (a *EntityAllocator) CreateBatch(n int) ([]core.Entity, error) {
	if n <= 0 {
		return []core.Entity{}, nil
	}
	if uint64(a.next)+uint64(n) > uint64(a.ceiling) {
		return nil, eris.Wrapf(ErrEntityIDSpaceExhausted, "cannot reserve %d ids from %d (ceiling %d)", n, a.next, a.ceiling)
	}

	out := make([]core.Entity, n)
	for i := range out {
		e := a.next + core.Entity(i)
		out[i] = e
		a.live[e] = struct{}{}
	}
	a.next += core.Entity(n)
	return out, nil
}

// Remove releases a live id. It reports false for ids that are not live.
func (a *EntityAllocator) Remove(e core.Entity) bool {
	if _, ok := a.live[e]; !ok {
		return false
	}
	delete(a.live, e)

	if len(a.pool) < a.poolCap {
		a.pool[e] = struct{}{}
	} else {
		a.retired++
	}
	return true
}

// RemoveBatch releases each live id in es and returns how many were released
func (a *EntityAllocator) RemoveBatch(es []core.Entity) int {
	n := 0
	for _, e := range es {
		if a.Remove(e) {
			n++
		}
	}
	return n
}

// Contains reports whether e is currently issued
func (a *EntityAllocator) Contains(e core.Entity) bool {
	_, ok := a.live[e]
	return ok
}

// Live returns the number of issued ids
func (a *EntityAllocator) Live() int { return len(a.live) }

// Recycled returns the number of ids waiting in the pool
func (a *EntityAllocator) Recycled() int { return len(a.pool) }

// Retired returns how many released ids were discarded because the pool was full
func (a *EntityAllocator) Retired() uint64 { return a.retired }

// Reset forgets every id and restarts numbering at 1
func (a *EntityAllocator) Reset() {
	a.next = 1
	clear(a.live)
	clear(a.pool)
	a.retired = 0
}
