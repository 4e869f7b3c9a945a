package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100

	// AudioBufferDuration determines speaker latency
	AudioBufferDuration = 50 * time.Millisecond
)

// Metronome Click
const (
	ClickDuration = 30 * time.Millisecond
	ClickAttack   = 2 * time.Millisecond
	ClickRelease  = 20 * time.Millisecond

	// ClickFreq is the pitch of a regular tick
	ClickFreq = 1000.0
	// AccentFreq is the pitch of the first tick of every second
	AccentFreq = 1500.0

	// ClickVolume is the linear gain of a click, 0.0-1.0
	ClickVolume = 0.25
)
