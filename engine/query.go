package engine

import (
	"slices"

	"github.com/lixenwraith/tickworld/core"
)

// QueryBuilder finds entities that have every listed component type.
// Intersection starts from the smallest store and filters through larger ones.
type QueryBuilder struct {
	stores   []ReadStore
	executed bool
	results  []core.Entity
}

// Query creates a new QueryBuilder.
// Use With() to add stores, then Execute() to get the results.
//
// Example:
//
//	entities := world.Query().
//	    With(Store[Position](world)).
//	    With(Store[Velocity](world)).
//	    Execute()
func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{
		stores: make([]ReadStore, 0, 4),
	}
}

// With adds stores to the query filter.
// Panics if called after Execute().
func (qb *QueryBuilder) With(stores ...ReadStore) *QueryBuilder {
	if qb.executed {
		panic("query already executed - cannot modify after Execute()")
	}
	qb.stores = append(qb.stores, stores...)
	return qb
}

// Execute returns the entities present in all stores, in the dense order of the smallest store.
// The result is owned by the caller. Calling Execute() again returns the cached result.
func (qb *QueryBuilder) Execute() []core.Entity {
	if qb.executed {
		return qb.results
	}
	qb.executed = true

	if len(qb.stores) == 0 {
		qb.results = []core.Entity{}
		return qb.results
	}

	slices.SortStableFunc(qb.stores, func(a, b ReadStore) int {
		return a.Len() - b.Len()
	})

	// Copy: the dense column belongs to the store
	candidates := slices.Clone(qb.stores[0].Entities())
	if candidates == nil {
		candidates = []core.Entity{}
	}

	for _, store := range qb.stores[1:] {
		if len(candidates) == 0 {
			break
		}
		filtered := candidates[:0]
		for _, e := range candidates {
			if store.Has(e) {
				filtered = append(filtered, e)
			}
		}
		candidates = filtered
	}

	qb.results = candidates
	return qb.results
}
