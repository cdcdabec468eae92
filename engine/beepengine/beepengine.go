// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

const (
	DefaultSampleRate      = 44100
	DefaultBufferDuration  = 50 * time.Millisecond
	DefaultResampleQuality = 3
)

type Options struct {
	SampleRate     int
	BufferDuration time.Duration
	// ResampleQuality is passed to beep.Resample, 1 to 64.
	ResampleQuality int
	Core            engine.CoreOptions
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.BufferDuration <= 0 {
		o.BufferDuration = DefaultBufferDuration
	}
	if o.ResampleQuality <= 0 {
		o.ResampleQuality = DefaultResampleQuality
	}
	return o
}

// mixer is the part of the speaker package the engine drives.
type mixer interface {
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
	Clear()
}

type speakerMixer struct{}

func (speakerMixer) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerMixer) Lock()                   { speaker.Lock() }
func (speakerMixer) Unlock()                 { speaker.Unlock() }
func (speakerMixer) Clear()                  { speaker.Clear() }

// Engine mixes voices on the beep speaker. The speaker is a process wide
// singleton, so only one Engine should be open at a time.
type Engine struct {
	mix   mixer
	rate  beep.SampleRate
	opts  Options
	log   zerolog.Logger
	close func()

	mu     sync.Mutex
	voices map[*voice]struct{}
	closed bool
}

// New initialises the speaker at opts.SampleRate.
func New(opts Options) (*Engine, error) {
	opts = opts.withDefaults()
	rate := beep.SampleRate(opts.SampleRate)

	if err := speaker.Init(rate, rate.N(opts.BufferDuration)); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrPlatform, err)
	}

	e := newEngine(speakerMixer{}, opts)
	e.close = speaker.Close
	e.log.Info().Int("rate", opts.SampleRate).Dur("buffer", opts.BufferDuration).Msg("speaker ready")

	return e, nil
}

func newEngine(m mixer, opts Options) *Engine {
	opts = opts.withDefaults()

	log := zerolog.Nop()
	if opts.Core.Logger != nil {
		log = *opts.Core.Logger
	}

	return &Engine{
		mix:    m,
		rate:   beep.SampleRate(opts.SampleRate),
		opts:   opts,
		log:    log.With().Str("engine", "beep").Logger(),
		close:  func() {},
		voices: make(map[*voice]struct{}),
	}
}

type voice struct {
	*engine.Core
	eng    *Engine
	src    *coreStreamer
	volume *effects.Volume
	ctrl   *beep.Ctrl
}

func (e *Engine) NewVoice(f audio.Format, fn engine.BufferNeededFunc) (engine.Voice, error) {
	core, err := engine.NewCore(f, fn, e.opts.Core)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		_ = core.Close()
		return nil, engine.ErrEngineClosed
	}

	v := &voice{Core: core, eng: e, src: newCoreStreamer(core)}

	var s beep.Streamer = v.src
	if voiceRate := beep.SampleRate(f.SampleRate); voiceRate != e.rate {
		s = beep.Resample(e.opts.ResampleQuality, voiceRate, e.rate, s)
	}
	v.volume = &effects.Volume{Streamer: s, Base: 2}
	v.ctrl = &beep.Ctrl{Streamer: v.volume, Paused: true}

	e.voices[v] = struct{}{}
	core.Start(v)
	e.mix.Play(v.ctrl)

	return v, nil
}

// gain maps a linear volume onto effects.Volume with base 2.
func gain(v float32) (level float64, silent bool) {
	if v <= 0 {
		return 0, true
	}
	return math.Log2(float64(v)), false
}

func (v *voice) apply() {
	level, silent := gain(v.Volume())

	v.eng.mix.Lock()
	v.ctrl.Paused = v.State() != engine.Playing
	v.volume.Volume = level
	v.volume.Silent = silent
	v.eng.mix.Unlock()
}

func (v *voice) Play() {
	v.Core.Play()
	v.apply()
}

func (v *voice) Stop() {
	v.Core.Stop()
	v.apply()
}

func (v *voice) Pause() {
	v.Core.Pause()
	v.apply()
}

func (v *voice) Resume() {
	v.Core.Resume()
	v.apply()
}

func (v *voice) SetVolume(vol float32) {
	v.Core.SetVolume(vol)
	v.apply()
}

// Close detaches the chain from its Ctrl, which makes the speaker drop it
// on its next pass.
func (v *voice) Close() error {
	_ = v.Core.Close()

	v.eng.mix.Lock()
	v.ctrl.Streamer = nil
	v.eng.mix.Unlock()

	v.eng.mu.Lock()
	delete(v.eng.voices, v)
	v.eng.mu.Unlock()

	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	voices := make([]*voice, 0, len(e.voices))
	for v := range e.voices {
		voices = append(voices, v)
	}
	e.mu.Unlock()

	for _, v := range voices {
		_ = v.Close()
	}
	e.mix.Clear()
	e.close()

	e.log.Info().Int("voices", len(voices)).Msg("engine closed")

	return nil
}
