package engine

import (
	"sync"
	"time"
)

// MockClock is a controllable Clock for tests.
// Time moves only through Advance and Set; timers fire when their deadline is reached.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	ch       chan time.Time
}

// NewMockClock creates a mock clock starting at start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the current mocked time
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTimer registers a timer firing once the clock reaches now+d
func (m *MockClock) NewTimer(d time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &mockTimer{
		clock:    m,
		deadline: m.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	if d <= 0 {
		t.ch <- m.now
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d and fires due timers
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	m.fireLocked()
}

// Set jumps the clock to t and fires due timers; moving backwards fires nothing
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
	m.fireLocked()
}

// Sleepers returns the number of pending timers
func (m *MockClock) Sleepers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// BlockUntil waits in real time until at least n timers are pending.
// It reports false if timeout elapses first.
func (m *MockClock) BlockUntil(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.Sleepers() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Microsecond)
	}
}

func (m *MockClock) fireLocked() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if t.deadline.After(m.now) {
			kept = append(kept, t)
			continue
		}
		t.ch <- m.now
	}
	clear(m.timers[len(kept):])
	m.timers = kept
}

func (t *mockTimer) C() <-chan time.Time { return t.ch }

// Stop unregisters the timer; false if it already fired or was stopped
func (t *mockTimer) Stop() bool {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.timers {
		if p == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}
