// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

// Stats are running counters of an Instance.
type Stats struct {
	// BankFills counts fills that produced at least one byte.
	BankFills int64
	// BytesSubmitted counts bytes handed to the voice.
	BytesSubmitted int64
	// Underruns counts callbacks that found the current bank still loading.
	Underruns int64
	// Finished counts natural ends of playback.
	Finished int64
}

// Instance streams one source to one engine voice through a ring of banks
// refilled by a background loader.
type Instance struct {
	eng    engine.Engine
	src    audio.Source
	cfg    Config
	format audio.Format
	log    zerolog.Logger

	banks   *BankSet
	signals *SignalSet
	loader  *loader

	// playMu serializes the voice callback against every control.
	playMu  sync.Mutex
	voice   engine.Voice
	current int
	cursor  int
	rewind  bool
	closed  bool

	loop        atomic.Bool
	stopLoading atomic.Bool
	sourceEmpty atomic.Bool
	failed      atomic.Bool
	speed       atomic.Uint32
	volume      atomic.Uint32

	bankFills atomic.Int64
	submitted atomic.Int64
	underruns atomic.Int64
	finished  atomic.Int64
}

// New primes every bank from src, creates a voice on eng and starts the
// loader. The instance owns src from here on and closes it on Close, also
// when New fails.
func New(eng engine.Engine, src audio.Source, cfg Config) (*Instance, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", audio.ErrInvalidArgument)
	}
	if eng == nil {
		_ = src.Close()
		return nil, fmt.Errorf("%w: nil engine", audio.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		_ = src.Close()
		return nil, err
	}

	format := src.Format()
	if err := format.Validate(); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}
	if err := checkSpeed(format, cfg.Speed); err != nil {
		_ = src.Close()
		return nil, err
	}

	align := format.BlockAlign()
	bankSize := cfg.BankSize - cfg.BankSize%align
	if bankSize == 0 {
		_ = src.Close()
		return nil, fmt.Errorf("%w: bank size %d is smaller than one frame", audio.ErrInvalidArgument, cfg.BankSize)
	}

	log := cfg.logger().With().Str("stream", cfg.Name).Logger()
	i := &Instance{
		eng:     eng,
		src:     src,
		cfg:     cfg,
		format:  format,
		log:     log,
		banks:   NewBankSet(cfg.BankCount, bankSize),
		signals: NewSignalSet(cfg.BankCount),
	}
	i.speed.Store(uint32(cfg.Speed))
	i.volume.Store(math.Float32bits(cfg.Volume))

	// Priming never loops; Play(true) wraps on the first refill.
	for b := range i.banks.Len() {
		i.fillBank(b, false, false)
	}

	v, err := eng.NewVoice(format.WithSpeed(cfg.Speed), i.onBufferNeeded)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("creating voice: %w", err)
	}
	v.SetVolume(cfg.Volume)
	i.voice = v

	i.loader = newLoader(i.banks, i.signals, func(b int, seek bool) {
		i.fillBank(b, seek, i.loop.Load())
	})
	i.loader.start()

	log.Info().
		Str("format", format.String()).
		Int64("bytes", src.Len()).
		Int("banks", cfg.BankCount).
		Int("bank_size", bankSize).
		Msgf("Loaded %s", cfg.Name)

	return i, nil
}

// fillBank runs on the loader goroutine, or on the caller during priming.
func (i *Instance) fillBank(b int, seek, loop bool) {
	bank := i.banks.Bank(b)

	if seek {
		i.failed.Store(false)
		i.sourceEmpty.Store(false)
		if err := i.src.SeekToStart(); err != nil {
			i.log.Warn().Err(err).Msg("rewinding source failed")
			i.failed.Store(true)
		}
	}

	if i.failed.Load() {
		bank.mu.Lock()
		bank.filled = 0
		bank.ready = true
		bank.mu.Unlock()
		i.report(b, 0)
		return
	}

	i.log.Debug().Int("bank", b).Msg("bank fill begin")

	res, err := FillBank(bank, i.src, loop)
	if err != nil {
		// Treated as the end of the stream.
		i.log.Warn().Err(err).Int("bank", b).Int("filled", res.Filled).Msg("source read failed")
		i.failed.Store(true)
		i.sourceEmpty.Store(true)
	}
	if res.Empty {
		i.sourceEmpty.Store(true)
	}
	if res.Filled > 0 {
		i.bankFills.Add(1)
	}

	i.log.Debug().Int("bank", b).Int("filled", res.Filled).Int("wraps", res.Wraps).Msg("bank fill finish")
	i.report(b, res.Filled)
}

func (i *Instance) report(b, n int) {
	if i.cfg.fillHook != nil {
		i.cfg.fillHook(b, n)
	}
}

func (i *Instance) chunkSize() int {
	align := i.format.BlockAlign()
	n := i.cfg.ChunkSize * int(i.speed.Load())
	n -= n % align
	return max(n, align)
}

// onBufferNeeded is the voice callback. It hands whole chunks of the
// current bank to the voice, moves to the next bank once one is drained and
// asks the loader to refill the drained one.
func (i *Instance) onBufferNeeded(v engine.Voice) {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	if i.closed || v != i.voice || v.State() != engine.Playing {
		return
	}

	chunk := i.chunkSize()

	for !i.stopLoading.Load() && v.PendingBufferCount() <= i.cfg.MaxPendingBuffers {
		bank := i.banks.Bank(i.current)
		bank.mu.Lock()

		if !bank.ready {
			bank.mu.Unlock()
			i.underruns.Add(1)
			return
		}

		if bank.filled == 0 {
			bank.mu.Unlock()
			if i.loop.Load() && !i.sourceEmpty.Load() {
				i.advanceLocked()
				continue
			}
			i.stopLoading.Store(true)
			break
		}

		n := min(chunk, bank.filled-i.cursor)
		if err := v.SubmitBuffer(bank.data[i.cursor : i.cursor+n]); err != nil {
			bank.mu.Unlock()
			i.log.Error().Err(err).Msg("submitting buffer failed")
			return
		}
		i.cursor += n
		i.submitted.Add(int64(n))

		drained := i.cursor >= bank.filled
		bank.mu.Unlock()

		if drained {
			i.advanceLocked()
		}
	}

	if i.stopLoading.Load() && v.PendingBufferCount() == 0 {
		i.finished.Add(1)
		i.log.Debug().Msg("playback finished")
		i.stopLocked()
	}
}

// advanceLocked releases the current bank to the loader and moves on.
func (i *Instance) advanceLocked() {
	i.banks.Bank(i.current).markUnready()
	i.signals.Raise(i.current)
	i.current = i.banks.Next(i.current)
	i.cursor = 0
}

// Play starts or resumes playback. A stopped or finished instance starts
// over from the beginning of the source.
func (i *Instance) Play(loop bool) error {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	if i.closed {
		return ErrClosed
	}

	i.loop.Store(loop)
	if i.rewind {
		i.rewind = false
		i.loader.rewind()
	}
	i.voice.Play()

	return nil
}

// Stop halts playback and drops queued audio. The next Play starts from
// the beginning.
func (i *Instance) Stop() {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	if i.closed {
		return
	}
	i.stopLocked()
}

func (i *Instance) stopLocked() {
	i.voice.Stop()
	i.current = 0
	i.cursor = 0
	i.stopLoading.Store(false)
	i.rewind = true
}

func (i *Instance) Pause() {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	if !i.closed {
		i.voice.Pause()
	}
}

func (i *Instance) Resume() {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	if !i.closed {
		i.voice.Resume()
	}
}

// SetVolume sets the volume in [0, 1]. The value survives voice recreation.
func (i *Instance) SetVolume(v float32) error {
	if !validVolume(v) {
		return fmt.Errorf("%w: %w: %v", audio.ErrInvalidArgument, ErrVolumeRange, v)
	}

	i.playMu.Lock()
	defer i.playMu.Unlock()

	if i.closed {
		return ErrClosed
	}

	i.volume.Store(math.Float32bits(v))
	i.voice.SetVolume(v)

	return nil
}

// SetPlaybackSpeedMultiplier plays the source m times faster by recreating
// the voice at m times the nominal sample rate. Bank contents and the read
// position are kept; audio still queued on the old voice is dropped.
func (i *Instance) SetPlaybackSpeedMultiplier(m uint) error {
	if err := checkSpeed(i.format, m); err != nil {
		return err
	}

	i.playMu.Lock()
	defer i.playMu.Unlock()

	if i.closed {
		return ErrClosed
	}
	if m == uint(i.speed.Load()) {
		return nil
	}

	old := i.voice
	state := old.State()
	old.Pause()

	nv, err := i.eng.NewVoice(i.format.WithSpeed(m), i.onBufferNeeded)
	if err != nil {
		if state == engine.Playing {
			old.Resume()
		}
		return fmt.Errorf("recreating voice at speed %d: %w", m, err)
	}
	_ = old.Close()

	i.voice = nv
	i.speed.Store(uint32(m))
	nv.SetVolume(i.Volume())

	switch state {
	case engine.Playing:
		nv.Play()
	case engine.Paused:
		nv.Play()
		nv.Pause()
	}

	i.log.Debug().Uint("speed", m).Int("rate", nv.Format().SampleRate).Msg("playback speed changed")

	return nil
}

// Close stops playback, joins the loader, closes the voice and finally the
// source. It is safe to call more than once.
func (i *Instance) Close() error {
	i.playMu.Lock()
	if i.closed {
		i.playMu.Unlock()
		return nil
	}
	i.closed = true
	i.voice.Pause()
	i.playMu.Unlock()

	i.loader.stop()

	verr := i.voice.Close()
	serr := i.src.Close()

	i.log.Info().Msgf("Destroyed %s", i.cfg.Name)

	return errors.Join(verr, serr)
}

func (i *Instance) State() engine.State {
	i.playMu.Lock()
	defer i.playMu.Unlock()

	return i.voice.State()
}

func (i *Instance) Loop() bool            { return i.loop.Load() }
func (i *Instance) Volume() float32       { return math.Float32frombits(i.volume.Load()) }
func (i *Instance) SpeedMultiplier() uint { return uint(i.speed.Load()) }
func (i *Instance) Format() audio.Format  { return i.format }
func (i *Instance) LoaderRunning() bool   { return i.loader.running.Load() }
func (i *Instance) Name() string          { return i.cfg.Name }

func (i *Instance) Stats() Stats {
	return Stats{
		BankFills:      i.bankFills.Load(),
		BytesSubmitted: i.submitted.Load(),
		Underruns:      i.underruns.Load(),
		Finished:       i.finished.Load(),
	}
}
