package engine

import (
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickworld/status"
)

type (
	markA struct{}
	markB struct{}
	markC struct{}
	markD struct{}
)

// recorder appends its name on each run; M makes each instantiation a distinct system type
type recorder[M any] struct {
	SystemBase
	name string
	out  *[]string
	skip bool
}

func (r *recorder[M]) Execute(*World) { *r.out = append(*r.out, r.name) }

func (r *recorder[M]) ShouldExecute(*World) bool { return !r.skip }

type blockingSystem struct {
	SystemBase
	started chan struct{}
	release chan struct{}
	runs    int
}

func (b *blockingSystem) Execute(*World) {
	b.runs++
	close(b.started)
	<-b.release
}

func TestStage_PriorityOrder(t *testing.T) {
	var out []string
	s := NewStage("update")
	require.NoError(t, s.AddSystem(&recorder[markA]{name: "p5", out: &out}, 5))
	require.NoError(t, s.AddSystem(&recorder[markB]{name: "p1", out: &out}, 1))
	require.NoError(t, s.AddSystem(&recorder[markC]{name: "p3", out: &out}, 3))

	require.True(t, s.Execute(NewWorld()))
	assert.Equal(t, []string{"p1", "p3", "p5"}, out)
}

func TestStage_TiesKeepInsertionOrder(t *testing.T) {
	var out []string
	s := NewStage("update")
	require.NoError(t, s.AddSystem(&recorder[markA]{name: "a", out: &out}, 2))
	require.NoError(t, s.AddSystem(&recorder[markB]{name: "b", out: &out}, 1))
	require.NoError(t, s.AddSystem(&recorder[markC]{name: "c", out: &out}, 2))
	s.Execute(NewWorld())

	// Registered after a sort has happened; still behind earlier ties
	require.NoError(t, s.AddSystem(&recorder[markD]{name: "d", out: &out}, 1))
	out = nil
	s.Execute(NewWorld())

	assert.Equal(t, []string{"b", "d", "a", "c"}, out)
}

func TestStage_DefaultPriorityRunsAfterExplicit(t *testing.T) {
	var out []string
	s := NewStage("update")
	require.NoError(t, s.AddSystemDefault(&recorder[markA]{name: "default", out: &out}))
	require.NoError(t, s.AddSystem(&recorder[markB]{name: "early", out: &out}, 100))

	s.Execute(NewWorld())
	assert.Equal(t, []string{"early", "default"}, out)
}

func TestStage_ShouldExecuteGates(t *testing.T) {
	var out []string
	s := NewStage("update")
	require.NoError(t, s.AddSystem(&recorder[markA]{name: "on", out: &out}, 1))
	require.NoError(t, s.AddSystem(&recorder[markB]{name: "off", out: &out, skip: true}, 2))

	s.Execute(NewWorld())
	assert.Equal(t, []string{"on"}, out)
}

func TestStage_DuplicateTypeConflicts(t *testing.T) {
	var out []string
	s := NewStage("update")
	require.NoError(t, s.AddSystem(&recorder[markA]{name: "x", out: &out}, 1))

	err := s.AddSystem(&recorder[markA]{name: "y", out: &out}, 2)
	assert.True(t, eris.Is(err, ErrConflict))

	err = s.AddSystem(nil, 1)
	assert.True(t, eris.Is(err, ErrConflict))
	assert.Equal(t, 1, s.Len())
}

func TestStage_RemoveSystem(t *testing.T) {
	var out []string
	s := NewStage("update")
	a := &recorder[markA]{name: "a", out: &out}
	require.NoError(t, s.AddSystem(a, 1))
	require.NoError(t, s.AddSystem(&recorder[markB]{name: "b", out: &out}, 2))

	assert.True(t, s.RemoveSystem(a))
	assert.False(t, s.RemoveSystem(a))
	s.Execute(NewWorld())
	assert.Equal(t, []string{"b"}, out)

	require.NoError(t, s.AddSystem(a, 3), "type can be registered again after removal")
}

func TestStage_DropOnOverlap(t *testing.T) {
	reg := status.NewRegistry()
	s := NewStage("update", WithStageStatus(reg))
	sys := &blockingSystem{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, s.AddSystem(sys, 1))
	w := NewWorld()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, s.Execute(w))
	}()
	<-sys.started

	assert.False(t, s.Execute(w), "overlapping execution must be dropped")

	close(sys.release)
	wg.Wait()

	assert.Equal(t, 1, sys.runs)
	assert.Equal(t, int64(1), s.Dropped())
	assert.Equal(t, int64(1), s.Runs())
	assert.Equal(t, "1", reg.Snapshot()[status.StageDroppedKey("update")])
}

func TestSchedule_StagesRunInRegistrationOrder(t *testing.T) {
	var out []string
	sc := NewSchedule()
	post := NewStage("post")
	pre := NewStage("pre")
	require.NoError(t, post.AddSystem(&recorder[markA]{name: "post", out: &out}, 0))
	require.NoError(t, pre.AddSystem(&recorder[markB]{name: "pre", out: &out}, 0))

	require.NoError(t, sc.AddStage("pre", pre))
	require.NoError(t, sc.AddStage("post", post))

	assert.Equal(t, 2, sc.Execute(NewWorld()))
	assert.Equal(t, []string{"pre", "post"}, out)
	assert.Equal(t, []StageID{"pre", "post"}, sc.StageIDs())
}

func TestSchedule_Errors(t *testing.T) {
	sc := NewSchedule()
	require.NoError(t, sc.AddStage(StageUpdate, NewStage("update")))

	err := sc.AddStage(StageUpdate, NewStage("again"))
	assert.True(t, eris.Is(err, ErrConflict))

	err = sc.AddStage("nil", nil)
	assert.True(t, eris.Is(err, ErrConflict))

	_, err = sc.Stage("missing")
	assert.True(t, eris.Is(err, ErrStageNotFound))

	err = sc.AddSystem("missing", &recorder[markA]{}, 0)
	assert.True(t, eris.Is(err, ErrStageNotFound))
}

func TestDefaultSchedule(t *testing.T) {
	sc := NewDefaultSchedule(nil, nil)
	assert.Equal(t, []StageID{StagePreUpdate, StageUpdate, StagePostUpdate}, sc.StageIDs())

	st, err := sc.Stage(StagePostUpdate)
	require.NoError(t, err)
	assert.Equal(t, "post_update", st.Name())
}

func TestSystemFunc(t *testing.T) {
	calls := 0
	s := NewStage("update")
	require.NoError(t, s.AddSystemDefault(SystemFunc(func(*World) { calls++ })))

	err := s.AddSystemDefault(SystemFunc(func(*World) {}))
	assert.True(t, eris.Is(err, ErrConflict))

	s.Execute(NewWorld())
	assert.Equal(t, 1, calls)
}
