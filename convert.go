// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audstream/audio"
)

// Convert reads src to the end and renders it as PCM in format f.
//
// This creates a processing pipeline:
//  1. decodes the source bytes to float samples
//  2. resamples to f.SampleRate using cubic interpolation
//  3. remaps the channels to f.Channels
//  4. encodes the samples at f.BitsPerSample
//
// bufferSize is the number of samples converted per step.
func Convert(src audio.Source, f audio.Format, bufferSize int) ([]byte, error) {
	return ConvertSamples(audio.NewPCMReader(src, src.Format()), f, bufferSize)
}

// ConvertSamples is Convert for a sample stream.
func ConvertSamples(src audio.SampleReader, f audio.Format, bufferSize int) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if bufferSize < f.Channels {
		return nil, fmt.Errorf("%w: buffer of %d samples", audio.ErrInvalidArgument, bufferSize)
	}

	if src.SampleRate() != f.SampleRate {
		src = audio.NewResampler(src, f.SampleRate)
	}
	if src.Channels() != f.Channels {
		src = audio.NewChannelMixer(src, f.Channels)
	}

	width := f.BitsPerSample / 8
	buf := make([]float32, bufferSize-bufferSize%f.Channels)

	// Start with about two seconds and grow from there.
	out := make([]byte, 0, 2*f.ByteRate())

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			start := len(out)
			out = append(out, make([]byte, n*width)...)
			audio.EncodeSamples(out[start:], buf[:n], f.BitsPerSample)
		}

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}
		if n == 0 {
			return out, nil
		}
	}
}
