// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/audio"
)

// CaptureOptions configures a Capture engine.
type CaptureOptions struct {
	// Realtime paces each voice to its byte rate. Otherwise queues are
	// drained as fast as they are filled.
	Realtime bool
	// Period is the device tick. It defaults to 10ms.
	Period time.Duration
	Core   CoreOptions
}

// Capture is a headless engine that writes the PCM of every playing voice
// to an io.Writer. It is meant for dumping one stream at a time; several
// voices playing together interleave at chunk granularity instead of being
// mixed.
type Capture struct {
	w    io.Writer
	opts CaptureOptions
	log  zerolog.Logger

	mu      sync.Mutex
	voices  map[*captureVoice]struct{}
	written int64
	err     error
	closed  bool
	wg      sync.WaitGroup
}

func NewCapture(w io.Writer, opts CaptureOptions) *Capture {
	if opts.Period <= 0 {
		opts.Period = 10 * time.Millisecond
	}
	opts.Core = opts.Core.withDefaults()

	return &Capture{
		w:      w,
		opts:   opts,
		log:    opts.Core.Logger.With().Str("engine", "capture").Logger(),
		voices: make(map[*captureVoice]struct{}),
	}
}

type captureVoice struct {
	*Core
	eng  *Capture
	buf  []byte
	tmp  []float32
	once sync.Once
}

func (e *Capture) NewVoice(f audio.Format, fn BufferNeededFunc) (Voice, error) {
	core, err := NewCore(f, fn, e.opts.Core)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		_ = core.Close()
		return nil, ErrEngineClosed
	}

	chunk := f.ByteRate() * int(e.opts.Period/time.Millisecond) / 1000
	chunk -= chunk % f.BlockAlign()
	if !e.opts.Realtime {
		chunk = max(chunk, 64*1024-64*1024%f.BlockAlign())
	}

	v := &captureVoice{
		Core: core,
		eng:  e,
		buf:  make([]byte, max(chunk, f.BlockAlign())),
	}
	e.voices[v] = struct{}{}

	core.Start(v)
	e.wg.Add(1)
	go v.run(e.opts.Period)

	return v, nil
}

func (v *captureVoice) run(period time.Duration) {
	defer v.eng.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-v.Done():
			return
		case <-ticker.C:
		}

		for {
			n := v.Read(v.buf)
			if n == 0 {
				break
			}
			v.eng.write(v.scale(v.buf[:n]))
			if v.eng.opts.Realtime {
				break
			}
		}
	}
}

// scale applies the voice volume in place.
func (v *captureVoice) scale(p []byte) []byte {
	vol := v.Volume()
	if vol == 1 {
		return p
	}

	bits := v.Format().BitsPerSample
	samples := len(p) / (bits / 8)
	if cap(v.tmp) < samples {
		v.tmp = make([]float32, samples)
	}
	tmp := v.tmp[:samples]

	audio.DecodeSamples(tmp, p, bits)
	for i := range tmp {
		tmp[i] *= vol
	}
	audio.EncodeSamples(p, tmp, bits)

	return p
}

func (e *Capture) write(p []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return
	}

	n, err := e.w.Write(p)
	e.written += int64(n)
	if err != nil {
		e.err = fmt.Errorf("%w", err)
		e.log.Error().Err(err).Msg("capture write failed")
	}
}

func (v *captureVoice) Close() error {
	v.once.Do(func() {
		_ = v.Core.Close()

		v.eng.mu.Lock()
		delete(v.eng.voices, v)
		v.eng.mu.Unlock()
	})
	return nil
}

// Written is the number of bytes handed to the writer so far.
func (e *Capture) Written() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.written
}

// Err reports the first write error. Voices keep consuming after a failed
// write but nothing more reaches the writer.
func (e *Capture) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.err
}

// Close closes every voice and waits for their device goroutines.
func (e *Capture) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	voices := make([]*captureVoice, 0, len(e.voices))
	for v := range e.voices {
		voices = append(voices, v)
	}
	e.mu.Unlock()

	for _, v := range voices {
		_ = v.Close()
	}
	e.wg.Wait()

	return e.Err()
}
