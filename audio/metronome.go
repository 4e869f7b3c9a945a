// Package audio plays an audible tick cadence through beep.
package audio

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/tickworld/core"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/parameter"
)

// Metronome emits a click for every fired tick, accented once per second of ticks.
// OnTick is a driver hook and runs on the driver goroutine.
type Metronome struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	rate        beep.SampleRate
	volume      float64
	initialized bool
	attached    bool

	enabled atomic.Bool
	clicks  atomic.Uint64
	accents atomic.Uint64

	log logrus.FieldLogger
}

// NewMetronome creates a metronome with no output; clicks are counted but not queued
// until Initialize or Output gives the mixer a consumer
func NewMetronome(log logrus.FieldLogger) *Metronome {
	if log == nil {
		log = core.NewDiscardLogger()
	}
	m := &Metronome{
		mixer:  &beep.Mixer{},
		rate:   beep.SampleRate(parameter.AudioSampleRate),
		volume: parameter.ClickVolume,
		log:    log.WithField("component", "metronome"),
	}
	m.enabled.Store(true)
	return m
}

// Initialize opens the speaker and starts playing the mixer
func (m *Metronome) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := speaker.Init(m.rate, m.rate.N(parameter.AudioBufferDuration)); err != nil {
		return eris.Wrap(err, "metronome: speaker init")
	}
	speaker.Play(m.mixer)
	m.initialized = true
	m.log.WithField("rate", int(m.rate)).Debug("speaker initialized")
	return nil
}

// Cleanup silences the mixer and closes the speaker
func (m *Metronome) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		m.mixer.Clear()
		return
	}
	speaker.Clear()
	speaker.Close()
	m.mixer.Clear()
	m.initialized = false
}

// Toggle flips click output and returns the new state
func (m *Metronome) Toggle() bool {
	for {
		old := m.enabled.Load()
		if m.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Enabled reports whether ticks produce clicks
func (m *Metronome) Enabled() bool { return m.enabled.Load() }

// Clicks returns the number of clicks produced so far, accents included
func (m *Metronome) Clicks() uint64 { return m.clicks.Load() }

// Accents returns the number of accented clicks produced so far
func (m *Metronome) Accents() uint64 { return m.accents.Load() }

// Pending returns the number of streams still playing on the mixer
func (m *Metronome) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return m.mixer.Len()
}

// Output hands the mixer to an external consumer instead of the speaker.
// The caller must keep streaming it or queued clicks accumulate.
func (m *Metronome) Output() beep.Streamer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = true
	return m.mixer
}

// OnTick queues a click; tick 1 and every TargetTPS ticks after it are accented
func (m *Metronome) OnTick(ev engine.TickEvent) {
	if !m.enabled.Load() {
		return
	}

	accent := ev.TargetTPS > 0 && (ev.Tick-1)%uint64(ev.TargetTPS) == 0

	m.mu.Lock()
	switch {
	case m.initialized:
		speaker.Lock()
		m.mixer.Add(CreateClick(m.rate, accent, m.volume))
		speaker.Unlock()
	case m.attached:
		m.mixer.Add(CreateClick(m.rate, accent, m.volume))
	}
	m.mu.Unlock()

	m.clicks.Add(1)
	if accent {
		m.accents.Add(1)
	}
}
