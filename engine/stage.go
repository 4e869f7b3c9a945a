package engine

import (
	"reflect"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/status"
)

type stageEntry struct {
	system   System
	priority int
	kind     reflect.Type
}

// Stage is an ordered group of systems executed together each tick.
// Systems run in ascending priority; ties keep registration order.
// Overlapping Execute calls are dropped, not queued.
type Stage struct {
	name string

	regMu   sync.Mutex
	entries []stageEntry
	dirty   bool

	execMu sync.Mutex

	log         logrus.FieldLogger
	runs        atomic.Int64
	dropped     atomic.Int64
	statRuns    *atomic.Int64
	statDropped *atomic.Int64
}

// StageOption configures a Stage
type StageOption func(*Stage)

// WithStageLogger sets the stage logger
func WithStageLogger(l logrus.FieldLogger) StageOption {
	return func(s *Stage) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStageStatus publishes run and drop counters into reg
func WithStageStatus(reg *status.Registry) StageOption {
	return func(s *Stage) {
		if reg != nil {
			s.statRuns = reg.Counter(status.StageRunsKey(s.name))
			s.statDropped = reg.Counter(status.StageDroppedKey(s.name))
		}
	}
}

// NewStage creates an empty stage
func NewStage(name string, opts ...StageOption) *Stage {
	s := &Stage{
		name: name,
		log:  core.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("stage", name)
	return s
}

// Name returns the stage name
func (s *Stage) Name() string { return s.name }

// AddSystem registers sys at priority; lower runs first.
// A stage holds at most one system per concrete type.
func (s *Stage) AddSystem(sys System, priority int) error {
	if sys == nil {
		return eris.Wrapf(ErrConflict, "stage %s: nil system", s.name)
	}
	kind := reflect.TypeOf(sys)

	s.regMu.Lock()
	defer s.regMu.Unlock()

	for _, en := range s.entries {
		if en.kind == kind {
			return eris.Wrapf(ErrConflict, "stage %s: system %s already registered", s.name, kind)
		}
	}
	s.entries = append(s.entries, stageEntry{system: sys, priority: priority, kind: kind})
	s.dirty = true
	return nil
}

// AddSystemDefault registers sys at DefaultPriority
func (s *Stage) AddSystemDefault(sys System) error {
	return s.AddSystem(sys, DefaultPriority)
}

// RemoveSystem unregisters the system with the same concrete type as sys
func (s *Stage) RemoveSystem(sys System) bool {
	kind := reflect.TypeOf(sys)

	s.regMu.Lock()
	defer s.regMu.Unlock()

	i := slices.IndexFunc(s.entries, func(en stageEntry) bool { return en.kind == kind })
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(slices.Clone(s.entries), i, i+1)
	return true
}

// Execute runs every system in priority order.
// It returns false without running anything if a previous Execute has not returned.
func (s *Stage) Execute(w *World) bool {
	if !s.execMu.TryLock() {
		s.dropped.Add(1)
		if s.statDropped != nil {
			s.statDropped.Add(1)
		}
		s.log.Debug("stage busy, execution dropped")
		return false
	}
	defer s.execMu.Unlock()

	for _, en := range s.ordered() {
		if en.system.ShouldExecute(w) {
			en.system.Execute(w)
		}
	}

	s.runs.Add(1)
	if s.statRuns != nil {
		s.statRuns.Add(1)
	}
	return true
}

// Systems returns the systems in execution order
func (s *Stage) Systems() []System {
	entries := s.ordered()
	out := make([]System, len(entries))
	for i, en := range entries {
		out[i] = en.system
	}
	return out
}

// Len returns the number of registered systems
func (s *Stage) Len() int {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	return len(s.entries)
}

// Runs returns completed executions
func (s *Stage) Runs() int64 { return s.runs.Load() }

// Dropped returns executions rejected because the stage was busy
func (s *Stage) Dropped() int64 { return s.dropped.Load() }

// ordered sorts on demand and returns a snapshot safe to iterate without the lock
func (s *Stage) ordered() []stageEntry {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	if s.dirty {
		sorted := slices.Clone(s.entries)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].priority < sorted[j].priority
		})
		s.entries = sorted
		s.dirty = false
	}
	return s.entries[:len(s.entries):len(s.entries)]
}
