package status

import (
	"slices"
	"sort"
	"strings"
	"sync"
)

// MetricMap is a named set of metrics of type T.
// Names are kept sorted at registration so snapshots walk them without sorting.
// Registration takes the mutex; callers cache the returned pointer and update it lock-free.
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
	keys  []string
}

// NewMetricMap creates an empty MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{
		items: make(map[string]*T),
	}
}

// Get returns the metric for key, creating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr, ok := m.items[key]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr, ok := m.items[key]; ok {
		return ptr
	}
	ptr = new(T)
	m.items[key] = ptr
	i := sort.SearchStrings(m.keys, key)
	m.keys = slices.Insert(m.keys, i, key)
	return ptr
}

// Lookup returns the metric for key without creating it
func (m *MetricMap[T]) Lookup(key string) (*T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ptr, ok := m.items[key]
	return ptr, ok
}

// Range visits every metric in key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.RangePrefix("", fn)
}

// RangePrefix visits metrics whose key starts with prefix, in key order
func (m *MetricMap[T]) RangePrefix(prefix string, fn func(key string, ptr *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := sort.SearchStrings(m.keys, prefix); i < len(m.keys); i++ {
		k := m.keys[i]
		if !strings.HasPrefix(k, prefix) {
			return
		}
		fn(k, m.items[k])
	}
}

// Keys returns the registered names in order
func (m *MetricMap[T]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.keys)
}

// Len returns the number of registered metrics
func (m *MetricMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}
