// SPDX-License-Identifier: EPL-2.0

// Package enginetest provides a deterministic engine for tests. Nothing
// runs in the background: the test calls Tick to run a voice's callback
// and ConsumeAll to play what it queued.
package enginetest

import (
	"math"
	"sync"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

type Engine struct {
	mu       sync.Mutex
	voices   []*Voice
	failNext error
	closed   bool
}

func New() *Engine { return &Engine{} }

// FailNext makes the next NewVoice call return err.
func (e *Engine) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failNext = err
}

func (e *Engine) NewVoice(f audio.Format, fn engine.BufferNeededFunc) (engine.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, engine.ErrEngineClosed
	}
	if err := e.failNext; err != nil {
		e.failNext = nil
		return nil, err
	}

	v := &Voice{format: f, fn: fn, volume: 1}
	e.voices = append(e.voices, v)

	return v, nil
}

// Voices returns every voice created so far, closed ones included.
func (e *Engine) Voices() []*Voice {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]*Voice(nil), e.voices...)
}

// Last is the most recently created voice.
func (e *Engine) Last() *Voice {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.voices) == 0 {
		return nil
	}
	return e.voices[len(e.voices)-1]
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return nil
}

// Voice records everything done to it.
type Voice struct {
	format audio.Format
	fn     engine.BufferNeededFunc

	mu       sync.Mutex
	state    engine.State
	volume   float32
	queue    [][]byte
	consumed []byte
	submits  int
	plays    int
	stops    int
	closed   bool
}

func (v *Voice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.state = engine.Playing
	v.plays++
}

func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = engine.Stopped
	v.queue = nil
	v.stops++
}

func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == engine.Playing {
		v.state = engine.Paused
	}
}

func (v *Voice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == engine.Paused {
		v.state = engine.Playing
	}
}

func (v *Voice) SetVolume(vol float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !math.IsNaN(float64(vol)) {
		v.volume = min(max(vol, 0), 1)
	}
}

func (v *Voice) Volume() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.volume
}

func (v *Voice) State() engine.State {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

func (v *Voice) PendingBufferCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.queue)
}

func (v *Voice) SubmitBuffer(p []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return engine.ErrVoiceClosed
	}
	v.queue = append(v.queue, append([]byte(nil), p...))
	v.submits++

	return nil
}

func (v *Voice) Format() audio.Format { return v.format }

func (v *Voice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	v.state = engine.Stopped
	v.queue = nil

	return nil
}

// Tick runs the buffer callback on the calling goroutine.
func (v *Voice) Tick() {
	if v.Closed() {
		return
	}
	v.fn(v)
}

// ConsumeAll plays every queued buffer if the voice is playing and returns
// the number of bytes consumed.
func (v *Voice) ConsumeAll() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != engine.Playing {
		return 0
	}

	n := 0
	for _, buf := range v.queue {
		v.consumed = append(v.consumed, buf...)
		n += len(buf)
	}
	v.queue = nil

	return n
}

// Consumed is every byte played so far, in order.
func (v *Voice) Consumed() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]byte(nil), v.consumed...)
}

func (v *Voice) Submits() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.submits
}

func (v *Voice) Plays() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.plays
}

func (v *Voice) Stops() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.stops
}

func (v *Voice) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.closed
}
