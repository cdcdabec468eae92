// SPDX-License-Identifier: EPL-2.0

package otoengine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

const (
	DefaultSampleRate     = 48000
	DefaultChannels       = 2
	DefaultBufferDuration = 40 * time.Millisecond
)

// Options configures the output device.
type Options struct {
	SampleRate     int
	Channels       int
	BufferDuration time.Duration
	Core           engine.CoreOptions
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Channels <= 0 {
		o.Channels = DefaultChannels
	}
	if o.BufferDuration <= 0 {
		o.BufferDuration = DefaultBufferDuration
	}
	return o
}

// Engine renders voices through one oto context. oto allows a single
// context per process, so create one Engine and share it.
type Engine struct {
	ctx  *oto.Context
	opts Options
	log  zerolog.Logger

	mu     sync.Mutex
	voices map[*voice]struct{}
	closed bool
}

// New opens the default output device and waits until it is ready.
func New(opts Options) (*Engine, error) {
	opts = opts.withDefaults()

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.BufferDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrPlatform, err)
	}
	<-ready

	log := zerolog.Nop()
	if opts.Core.Logger != nil {
		log = *opts.Core.Logger
	}
	log = log.With().Str("engine", "oto").Logger()
	log.Info().Int("rate", opts.SampleRate).Int("channels", opts.Channels).Msg("output device ready")

	return &Engine{
		ctx:    ctx,
		opts:   opts,
		log:    log,
		voices: make(map[*voice]struct{}),
	}, nil
}

type voice struct {
	*engine.Core
	eng    *Engine
	player *oto.Player
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

	v := &voice{Core: core, eng: e}
	v.player = e.ctx.NewPlayer(newPipeline(core, e.opts.SampleRate, e.opts.Channels))
	e.voices[v] = struct{}{}
	core.Start(v)

	return v, nil
}

func (v *voice) Play() {
	v.Core.Play()
	v.player.Play()
}

func (v *voice) Stop() {
	v.Core.Stop()
	v.player.Pause()
}

func (v *voice) Pause() {
	v.Core.Pause()
	v.player.Pause()
}

func (v *voice) Resume() {
	v.Core.Resume()
	if v.State() == engine.Playing {
		v.player.Play()
	}
}

func (v *voice) SetVolume(vol float32) {
	v.Core.SetVolume(vol)
	v.player.SetVolume(float64(v.Volume()))
}

func (v *voice) Close() error {
	_ = v.Core.Close()
	v.player.Pause()

	v.eng.mu.Lock()
	delete(v.eng.voices, v)
	v.eng.mu.Unlock()

	if err := v.player.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Close closes every voice. The oto context itself lives until the process
// exits.
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

	var errs []error
	for _, v := range voices {
		if err := v.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.ctx.Suspend(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", audio.ErrPlatform, err))
	}

	e.log.Info().Int("voices", len(voices)).Msg("engine closed")

	return errors.Join(errs...)
}
