// SPDX-License-Identifier: EPL-2.0

package stream

import "sync"

// SignalSet is a fixed set of auto-reset signals a single goroutine waits
// on. Raising a signal that is already raised is a no-op, so signals
// coalesce. The last index is reserved for exit and wins over every other
// signal in WaitForAny.
type SignalSet struct {
	mu     sync.Mutex
	raised []bool
	wake   chan struct{}
}

// NewSignalSet returns a set of n bank signals plus the exit signal.
func NewSignalSet(n int) *SignalSet {
	return &SignalSet{
		raised: make([]bool, n+1),
		wake:   make(chan struct{}, 1),
	}
}

func (s *SignalSet) ExitIndex() int { return len(s.raised) - 1 }

func (s *SignalSet) Raise(i int) {
	s.mu.Lock()
	s.raised[i] = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// WaitForAny blocks until a signal is raised, clears it and returns its
// index. Exit is reported first, then the lowest raised bank. Exit is
// never cleared.
func (s *SignalSet) WaitForAny() int {
	for {
		if i, ok := s.take(); ok {
			return i
		}
		<-s.wake
	}
}

func (s *SignalSet) take() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exit := s.ExitIndex()
	if s.raised[exit] {
		return exit, true
	}
	for i, r := range s.raised[:exit] {
		if r {
			s.raised[i] = false
			return i, true
		}
	}
	return 0, false
}

// Clear drops every raised bank signal. A raised exit stays raised.
func (s *SignalSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.raised[:s.ExitIndex()])
}
