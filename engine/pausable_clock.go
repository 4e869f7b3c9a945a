package engine

import (
	"sync"
	"time"
)

// PausableClock provides pausable game time over a base Clock
type PausableClock struct {
	mu sync.RWMutex

	base  Clock
	start time.Time // Base time when the clock was created

	// Pause state
	paused      bool
	pauseStart  time.Time     // When current pause started (base time)
	totalPaused time.Duration // Cumulative pause duration
}

// NewPausableClock creates a running pausable clock; nil base uses the real clock
func NewPausableClock(base Clock) *PausableClock {
	if base == nil {
		base = NewRealClock()
	}
	return &PausableClock{
		base:  base,
		start: base.Now(),
	}
}

// Now returns current game time, frozen while paused
func (pc *PausableClock) Now() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	ref := pc.pauseStart
	if !pc.paused {
		ref = pc.base.Now()
	}
	// Game elapsed = real elapsed - total paused time
	return pc.start.Add(ref.Sub(pc.start) - pc.totalPaused)
}

// RealTime returns base clock time, unaffected by pause
func (pc *PausableClock) RealTime() time.Time {
	return pc.base.Now()
}

// Pause stops game time advancement; no-op if already paused
func (pc *PausableClock) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.paused {
		return
	}
	pc.paused = true
	pc.pauseStart = pc.base.Now()
}

// Resume continues game time advancement; no-op if running
func (pc *PausableClock) Resume() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.paused {
		return
	}
	pc.totalPaused += pc.base.Now().Sub(pc.pauseStart)
	pc.paused = false
	pc.pauseStart = time.Time{}
}

// IsPaused returns current pause state
func (pc *PausableClock) IsPaused() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.paused
}

// TotalPaused returns cumulative pause time including the current pause
func (pc *PausableClock) TotalPaused() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	total := pc.totalPaused
	if pc.paused {
		total += pc.base.Now().Sub(pc.pauseStart)
	}
	return total
}
