package status

import "sync/atomic"

// MaxLabelLen truncates label values so snapshots stay one line
const MaxLabelLen = 32

// AtomicString holds a short label such as the tick driver state
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store sets the label, truncating to MaxLabelLen
func (s *AtomicString) Store(val string) {
	if len(val) > MaxLabelLen {
		val = val[:MaxLabelLen]
	}
	s.ptr.Store(&val)
}

// Load returns the label or "" when unset
func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
