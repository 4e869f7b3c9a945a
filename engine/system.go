package engine

import "math"

// DefaultPriority marks a system registered without an explicit priority.
// It sits in the middle of the range so explicit priorities can run before or after it.
const DefaultPriority = math.MaxInt32 / 2

// System is one unit of per-tick logic
type System interface {
	// Execute runs the system against the world for one tick
	Execute(w *World)

	// ShouldExecute gates Execute for this tick
	ShouldExecute(w *World) bool
}

// SystemBase provides the always-run default
// Embed in system struct to eliminate boilerplate
type SystemBase struct{}

// ShouldExecute always returns true
func (SystemBase) ShouldExecute(*World) bool { return true }

// SystemFunc adapts a function to a System.
// A stage accepts one SystemFunc at most since it rejects duplicate concrete types.
type SystemFunc func(w *World)

// Execute calls f
func (f SystemFunc) Execute(w *World) { f(w) }

// ShouldExecute always returns true
func (SystemFunc) ShouldExecute(*World) bool { return true }
