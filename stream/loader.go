// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"sync"
	"sync/atomic"
)

// loader refills drained banks on its own goroutine. Banks are filled in
// ring order no matter how their signals coalesce, so the byte stream keeps
// its order.
type loader struct {
	banks   *BankSet
	signals *SignalSet
	fill    func(i int, seek bool)

	mu          sync.Mutex
	next        int
	want        []bool
	seekPending bool

	running atomic.Bool
	done    chan struct{}
}

func newLoader(banks *BankSet, signals *SignalSet, fill func(i int, seek bool)) *loader {
	return &loader{
		banks:   banks,
		signals: signals,
		fill:    fill,
		want:    make([]bool, banks.Len()),
		done:    make(chan struct{}),
	}
}

func (l *loader) start() {
	l.running.Store(true)
	go l.run()
}

func (l *loader) run() {
	defer close(l.done)
	defer l.running.Store(false)

	exit := l.signals.ExitIndex()
	for {
		i := l.signals.WaitForAny()
		if i == exit {
			return
		}

		l.mu.Lock()
		// A ready bank was refilled after this signal was raised, for
		// example by a rewind racing the wait.
		if _, ready := l.banks.Bank(i).Filled(); !ready {
			l.want[i] = true
		}
		for l.want[l.next] {
			idx := l.next
			l.want[idx] = false
			l.next = l.banks.Next(idx)

			seek := l.seekPending
			l.seekPending = false
			l.fill(idx, seek)
		}
		l.mu.Unlock()
	}
}

// rewind makes the loader refill every bank from the start of the source.
// A fill in progress finishes first.
func (l *loader) rewind() {
	l.mu.Lock()
	l.next = 0
	clear(l.want)
	l.seekPending = true
	l.signals.Clear()
	l.banks.markAllUnready()
	l.mu.Unlock()

	for i := range l.banks.Len() {
		l.signals.Raise(i)
	}
}

// stop raises exit and waits for the goroutine to return.
func (l *loader) stop() {
	l.signals.Raise(l.signals.ExitIndex())
	<-l.done
}
