// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Format describes interleaved little-endian PCM.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// BlockAlign is the size of one frame in bytes.
func (f Format) BlockAlign() int { return f.Channels * f.BitsPerSample / 8 }

// ByteRate is the number of bytes consumed per second of playback.
func (f Format) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// WithSpeed returns f with the sample rate scaled by m.
func (f Format) WithSpeed(m uint) Format {
	f.SampleRate *= int(m)
	return f
}

func (f Format) String() string {
	return fmt.Sprintf("%dch %dHz %dbit", f.Channels, f.SampleRate, f.BitsPerSample)
}

// Validate reports whether the format can be rendered by the PCM helpers in
// this package.
func (f Format) Validate() error {
	if f.Channels < 1 || f.SampleRate < 1 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, f)
	}

	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrUnsupportedBitDepth, f.BitsPerSample)
	}

	return nil
}

// Source is a seekable stream of PCM bytes.
//
// Read only returns whole frames. It returns 0 and io.EOF once the stream is
// exhausted; SeekToStart rewinds to the first frame so reading can continue.
type Source interface {
	io.Reader

	// SeekToStart repositions the cursor to the first PCM frame.
	SeekToStart() error
	// AtEnd reports whether the cursor sits past the last frame.
	AtEnd() bool
	// Format of the bytes produced by Read.
	Format() Format
	// Len is the total PCM size in bytes, or -1 when unknown.
	Len() int64

	// Close releases the file handle, mapping or decoder.
	Close() error
}

// SampleReader produces interleaved float32 samples in [-1,1].
type SampleReader interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples.
	// Returns number of float32 values written (not frames). A reader that is
	// temporarily starved returns 0 with a nil error; io.EOF marks the end.
	ReadSamples(dst []float32) (n int, err error)
}
