package engine

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/status"
)

// StageID names a stage within a schedule
type StageID string

// Well-known stages of the default schedule
const (
	StagePreUpdate  StageID = "pre_update"
	StageUpdate     StageID = "update"
	StagePostUpdate StageID = "post_update"
)

type scheduleEntry struct {
	id    StageID
	stage *Stage
}

// Schedule is an ordered sequence of stages executed every tick
type Schedule struct {
	mu     sync.RWMutex
	stages []scheduleEntry
}

// NewSchedule creates an empty schedule
func NewSchedule() *Schedule {
	return &Schedule{}
}

// NewDefaultSchedule creates a schedule with the pre_update, update and post_update stages
func NewDefaultSchedule(log logrus.FieldLogger, reg *status.Registry) *Schedule {
	sc := NewSchedule()
	for _, id := range []StageID{StagePreUpdate, StageUpdate, StagePostUpdate} {
		// Ids are fixed and distinct
		_ = sc.AddStage(id, NewStage(string(id), WithStageLogger(log), WithStageStatus(reg)))
	}
	return sc
}

// AddStage appends stage under id
func (sc *Schedule) AddStage(id StageID, stage *Stage) error {
	if stage == nil {
		return eris.Wrapf(ErrConflict, "schedule: nil stage %q", id)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	for _, en := range sc.stages {
		if en.id == id {
			return eris.Wrapf(ErrConflict, "schedule: stage %q already registered", id)
		}
	}
	sc.stages = append(sc.stages, scheduleEntry{id: id, stage: stage})
	return nil
}

// Stage returns the stage registered under id
func (sc *Schedule) Stage(id StageID) (*Stage, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	for _, en := range sc.stages {
		if en.id == id {
			return en.stage, nil
		}
	}
	return nil, eris.Wrapf(ErrStageNotFound, "schedule: stage %q", id)
}

// AddSystem registers sys in the stage id
func (sc *Schedule) AddSystem(id StageID, sys System, priority int) error {
	st, err := sc.Stage(id)
	if err != nil {
		return err
	}
	return st.AddSystem(sys, priority)
}

// StageIDs returns stage ids in execution order
func (sc *Schedule) StageIDs() []StageID {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	ids := make([]StageID, len(sc.stages))
	for i, en := range sc.stages {
		ids[i] = en.id
	}
	return ids
}

// Execute runs every stage in registration order and returns how many ran
func (sc *Schedule) Execute(w *World) int {
	sc.mu.RLock()
	stages := sc.stages[:len(sc.stages):len(sc.stages)]
	sc.mu.RUnlock()

	ran := 0
	for _, en := range stages {
		if en.stage.Execute(w) {
			ran++
		}
	}
	return ran
}
