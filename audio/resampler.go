// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audstream/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// A starved source (0 samples, nil error) makes ReadSamples return early
// without losing interpolation state, so the resampler can sit on top of a
// live voice queue.
type Resampler struct {
	src      SampleReader
	dstRate  int
	ratio    float64 // srcRate / dstRate - how many source samples per output sample
	channels int

	// Ring buffer holding 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames [4][]float32
	have   int

	// Position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool
	pads   int

	// Simple low-pass filter state for anti-aliasing (when downsampling)
	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src SampleReader, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	useFilter := ratio > 1.0
	var filterAlpha float32
	if useFilter {
		// One-pole low-pass, cutoff near the destination Nyquist
		filterAlpha = 0.5
	}

	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   useFilter,
		filterAlpha: filterAlpha,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }

// SetSourceRate changes the input rate without resetting the ring.
func (r *Resampler) SetSourceRate(rate int) {
	r.ratio = float64(rate) / float64(r.dstRate)
}

// shift drops frames[0]: [0,1,2,3] -> [1,2,3,?]
func (r *Resampler) shift() {
	first := r.frames[0]
	copy(r.frames[:], r.frames[1:])
	r.frames[3] = first
	r.have--
}

// pull appends one source frame to the ring. It reports false when the
// source is starved or finished.
func (r *Resampler) pull() (bool, error) {
	if r.eof {
		// Repeat the last frame twice so the tail gets rendered.
		if r.have < 2 || r.pads >= 2 {
			return false, nil
		}
		copy(r.frames[r.have], r.frames[r.have-1])
		r.have++
		r.pads++
		return true, nil
	}

	n, err := r.src.ReadSamples(r.srcBuf)
	got := n == r.channels
	if got {
		slot := r.frames[r.have]
		copy(slot, r.srcBuf)

		if r.useFilter {
			if r.have == 0 {
				// Initialize filter state with first sample to avoid warm-up transients
				copy(r.filterState, slot)
			}
			for c := range r.channels {
				// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
				slot[c] = r.filterAlpha*slot[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = slot[c]
			}
		}

		if r.have == 0 {
			// The first frame doubles as t-1.
			copy(r.frames[1], slot)
			r.have++
		}
		r.have++
	}

	if errors.Is(err, io.EOF) {
		r.eof = true
		if !got {
			return r.pull()
		}
		return true, nil
	}
	if err != nil {
		return got, fmt.Errorf("%w", err)
	}

	return got, nil
}

// ReadSamples produces dst samples at the destination rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	framesNeeded := len(dst) / r.channels
	written := 0

	for written < framesNeeded {
		for r.have < len(r.frames) || r.pos >= 1.0 {
			if r.have == len(r.frames) {
				r.shift()
				r.pos -= 1.0
			}

			ok, err := r.pull()
			if err != nil {
				return written * r.channels, err
			}
			if !ok {
				if r.eof {
					if written == 0 {
						return 0, io.EOF
					}
					return written * r.channels, io.EOF
				}
				return written * r.channels, nil
			}
		}

		out := dst[written*r.channels : (written+1)*r.channels]
		utils.CubicInterpolateFrame(out, r.frames[0], r.frames[1], r.frames[2], r.frames[3], float32(r.pos))

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
