package engine

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickworld/core"
)

// requirePacked checks dense columns against the sparse index and a reference model
func requirePacked(t *testing.T, s *SparseSet[int], model map[core.Entity]int) {
	t.Helper()
	entities, values := s.Dense()
	require.Len(t, entities, s.Len())
	require.Len(t, values, s.Len())
	require.Equal(t, len(model), s.Len())

	seen := make(map[core.Entity]bool, len(entities))
	for i, e := range entities {
		require.False(t, seen[e], "duplicate entity %d", e)
		seen[e] = true

		want, ok := model[e]
		require.True(t, ok, "entity %d not in model", e)
		require.Equal(t, want, values[i])

		idx, ok := s.IndexOf(e)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}
}

func TestSparseSet_SwapCorrectness(t *testing.T) {
	s := NewSparseSet[int]()
	require.NoError(t, s.Add(1, 10))
	require.NoError(t, s.Add(2, 20))
	require.NoError(t, s.Add(3, 30))

	require.True(t, s.Remove(2))

	assert.True(t, s.Has(1))
	assert.False(t, s.Has(2))
	assert.True(t, s.Has(3))
	v, err := s.Get(3)
	require.NoError(t, err)
	assert.Equal(t, 30, v)
	assert.Equal(t, 2, s.Len())

	idx, _ := s.IndexOf(3)
	assert.Equal(t, 1, idx, "last entry moves into the removed slot")
}

func TestSparseSet_LastRemovalIsSwapFree(t *testing.T) {
	s := NewSparseSet[int]()
	for e := core.Entity(1); e <= 5; e++ {
		require.NoError(t, s.Add(e, int(e)))
	}

	before := make(map[core.Entity]int)
	for e := core.Entity(1); e <= 4; e++ {
		before[e], _ = s.IndexOf(e)
	}

	last := s.Entities()[s.Len()-1]
	require.True(t, s.Remove(last))

	for e, idx := range before {
		got, ok := s.IndexOf(e)
		require.True(t, ok)
		assert.Equal(t, idx, got, "entity %d moved", e)
	}
}

func TestSparseSet_AddErrors(t *testing.T) {
	s := NewSparseSet[string](WithMaxEntity(100))

	err := s.Add(core.NullEntity, "x")
	assert.True(t, eris.Is(err, ErrInvalidEntity))

	err = s.Add(101, "x")
	assert.True(t, eris.Is(err, ErrInvalidEntity))

	require.NoError(t, s.Add(100, "a"))
	err = s.Add(100, "b")
	assert.True(t, eris.Is(err, ErrDuplicateComponent))

	v, _ := s.Get(100)
	assert.Equal(t, "a", v, "failed add must not overwrite")

	assert.False(t, s.TryAdd(100, "c"))
	assert.False(t, s.TryAdd(0, "c"))
	assert.True(t, s.TryAdd(7, "c"))
}

func TestSparseSet_GetMissing(t *testing.T) {
	s := NewSparseSet[int]()

	_, err := s.Get(42)
	assert.True(t, eris.Is(err, ErrComponentNotFound))

	_, ok := s.TryGet(42)
	assert.False(t, ok)

	_, err = s.GetMutable(42)
	assert.True(t, eris.Is(err, ErrComponentNotFound))

	assert.False(t, s.Remove(42))
	assert.False(t, s.Has(core.MaxEntity))
}

func TestSparseSet_SetAndMutable(t *testing.T) {
	s := NewSparseSet[int]()
	require.NoError(t, s.Set(5, 1))
	require.NoError(t, s.Set(5, 2))
	assert.Equal(t, 1, s.Len())

	p, err := s.GetMutable(5)
	require.NoError(t, err)
	*p += 40

	v, _ := s.Get(5)
	assert.Equal(t, 42, v)
}

func TestSparseSet_LazyPaging(t *testing.T) {
	s := NewSparseSet[int](WithPageSize(1000))
	assert.Equal(t, 1024, s.PageSize(), "page size rounds up to a power of two")
	assert.Zero(t, s.PageCount())

	require.NoError(t, s.Add(1, 1))
	require.NoError(t, s.Add(5000, 2))
	assert.Equal(t, 2, s.PageCount())

	// Lookups in unallocated pages do not allocate
	assert.False(t, s.Has(3000))
	assert.Equal(t, 2, s.PageCount())

	s.Clear()
	assert.Zero(t, s.PageCount())
	assert.Zero(t, s.Len())
	assert.False(t, s.Has(1))
}

func TestSparseSet_GrowthAligned(t *testing.T) {
	s := NewSparseSet[int](WithInitialCapacity(3), WithGrowStep(5))
	assert.Equal(t, 16, s.Cap())

	for e := core.Entity(1); e <= 17; e++ {
		require.NoError(t, s.Add(e, int(e)))
	}
	assert.Equal(t, 32, s.Cap())
	assert.Zero(t, s.Cap()%16)
}

func TestSparseSet_ClearKeepsCapacity(t *testing.T) {
	s := NewSparseSet[int]()
	for e := core.Entity(1); e <= 200; e++ {
		require.NoError(t, s.Add(e, 0))
	}
	c := s.Cap()

	s.Clear()
	assert.Equal(t, c, s.Cap())
	require.NoError(t, s.Add(1, 9))
	assert.Equal(t, 1, s.Len())
}

func TestSparseSet_RemoveBatchPreservesOrder(t *testing.T) {
	s := NewSparseSet[int]()
	model := map[core.Entity]int{}
	for e := core.Entity(1); e <= 10; e++ {
		require.NoError(t, s.Add(e, int(e)*10))
		model[e] = int(e) * 10
	}

	removed := s.RemoveBatch([]core.Entity{2, 5, 5, 9, 77})
	assert.Equal(t, 3, removed)
	delete(model, 2)
	delete(model, 5)
	delete(model, 9)

	assert.Equal(t, []core.Entity{1, 3, 4, 6, 7, 8, 10}, s.Entities())
	requirePacked(t, s, model)
	assert.Zero(t, s.RemoveBatch(nil))
}

func TestSparseSet_RemoveWhere(t *testing.T) {
	s := NewSparseSet[int]()
	model := map[core.Entity]int{}
	for e := core.Entity(1); e <= 20; e++ {
		require.NoError(t, s.Add(e, int(e)))
		model[e] = int(e)
	}

	n := s.RemoveWhere(func(_ core.Entity, v int) bool { return v%3 == 0 })
	assert.Equal(t, 6, n)
	for e := range model {
		if model[e]%3 == 0 {
			delete(model, e)
		}
	}
	requirePacked(t, s, model)
}

func TestSparseSet_All(t *testing.T) {
	s := NewSparseSet[int]()
	for e := core.Entity(1); e <= 4; e++ {
		require.NoError(t, s.Add(e, 1))
	}

	for e, v := range s.All() {
		*v += int(e)
	}
	assert.Equal(t, []int{2, 3, 4, 5}, s.Values())

	visited := 0
	for range s.All() {
		visited++
		break
	}
	assert.Equal(t, 1, visited)
}

func TestSparseSet_ModelEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewSparseSet[int](WithPageSize(64), WithMaxEntity(4096))
	model := map[core.Entity]int{}

	for step := 0; step < 20000; step++ {
		e := core.Entity(rng.Intn(4096) + 1)
		v := rng.Int()

		switch op := rng.Intn(10); {
		case op < 4:
			err := s.Add(e, v)
			if _, ok := model[e]; ok {
				require.True(t, eris.Is(err, ErrDuplicateComponent))
			} else {
				require.NoError(t, err)
				model[e] = v
			}
		case op < 6:
			_, had := model[e]
			require.Equal(t, !had, s.TryAdd(e, v))
			if !had {
				model[e] = v
			}
		case op < 9:
			_, had := model[e]
			require.Equal(t, had, s.Remove(e))
			delete(model, e)
		default:
			batch := []core.Entity{e, e + 1, e + 2}
			want := 0
			for _, b := range batch {
				if _, ok := model[b]; ok {
					want++
					delete(model, b)
				}
			}
			require.Equal(t, want, s.RemoveBatch(batch))
		}

		_, inModel := model[e]
		require.Equal(t, inModel, s.Has(e))
	}

	requirePacked(t, s, model)

	keys := make([]core.Entity, 0, len(model))
	for e := range model {
		keys = append(keys, e)
	}
	slices.Sort(keys)
	got := slices.Clone(s.Entities())
	slices.Sort(got)
	assert.Equal(t, keys, got)
}
