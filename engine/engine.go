// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"

	"github.com/ik5/audstream/audio"
)

var (
	ErrVoiceClosed  = errors.New("voice is closed")
	ErrEngineClosed = errors.New("engine is closed")
)

// State is the transport state of a voice.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// BufferNeededFunc is called from the voice's dispatcher goroutine when the
// queue runs low and on Play. It never runs on the device thread, so it may
// block on locks.
type BufferNeededFunc func(v Voice)

// Voice is a queue of PCM buffers played at a fixed format.
//
// SubmitBuffer copies its argument. Stop discards everything still queued;
// Pause keeps it. Close is non-blocking and may be called from within the
// voice's own callback.
type Voice interface {
	Play()
	Stop()
	Pause()
	Resume()
	SetVolume(v float32)
	Volume() float32
	State() State
	PendingBufferCount() int
	SubmitBuffer(p []byte) error
	Format() audio.Format
	Close() error
}

// Engine creates voices on one output.
type Engine interface {
	NewVoice(f audio.Format, fn BufferNeededFunc) (Voice, error)
	Close() error
}
