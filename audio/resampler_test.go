// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"math"
	"testing"
)

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 1000)
	resampler := NewResampler(src, 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("Resampler.SampleRate() = %d, want 8000", resampler.SampleRate())
	}

	if resampler.Channels() != 2 {
		t.Errorf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}
}

func TestResampler_SameRate(t *testing.T) {
	t.Parallel()

	// No resampling needed (same rate)
	src := newConstantSource(8000, 1, 100, 0.5)
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 100)
	n, err := resampler.ReadSamples(buf)

	if err == nil || err == io.EOF {
		// OK
	} else {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	if n == 0 {
		t.Fatal("ReadSamples() returned 0 samples")
	}

	// Values should be approximately 0.5
	for i := range n {
		if math.Abs(float64(buf[i]-0.5)) > 0.1 {
			t.Errorf("buf[%d] = %v, want ≈0.5", i, buf[i])
		}
	}
}

func TestResampler_Downsampling(t *testing.T) {
	t.Parallel()

	// Downsample from 44.1kHz to 8kHz
	totalSamples := 44100 // 1 second of audio
	src := newSineSource(44100, 1, totalSamples, 440.0)
	resampler := NewResampler(src, 8000)

	// Collect all resampled data
	buf := make([]float32, 1024)
	var samples []float32

	for {
		n, err := resampler.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	// Should have approximately 8000 samples (1 second at 8kHz)
	expected := 8000
	tolerance := 100
	if len(samples) < expected-tolerance || len(samples) > expected+tolerance {
		t.Errorf("Resampled %d samples, want ≈%d (±%d)", len(samples), expected, tolerance)
	}

	// Verify samples are in valid range
	for i, s := range samples {
		if s < -1.5 || s > 1.5 {
			t.Errorf("samples[%d] = %v, outside reasonable range [-1.5, 1.5]", i, s)
		}
	}
}

func TestResampler_Upsampling(t *testing.T) {
	t.Parallel()

	// Upsample from 8kHz to 44.1kHz
	totalSamples := 8000 // 1 second of audio
	src := newSineSource(8000, 1, totalSamples, 440.0)
	resampler := NewResampler(src, 44100)

	// Collect all resampled data
	buf := make([]float32, 1024)
	var samples []float32

	for {
		n, err := resampler.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	// Should have approximately 44100 samples (1 second at 44.1kHz)
	expected := 44100
	tolerance := 500
	if len(samples) < expected-tolerance || len(samples) > expected+tolerance {
		t.Errorf("Resampled %d samples, want ≈%d (±%d)", len(samples), expected, tolerance)
	}

	// Verify samples are in valid range
	for i, s := range samples {
		if s < -1.5 || s > 1.5 {
			t.Errorf("samples[%d] = %v, outside reasonable range [-1.5, 1.5]", i, s)
		}
	}
}

func TestResampler_StereoPreserved(t *testing.T) {
	t.Parallel()

	// Stereo resampling should preserve channel count
	src := newMockSource(44100, 2, 1000, func(sample int, channel int) float32 {
		if channel == 0 {
			return 0.3 // Left
		}
		return 0.7 // Right
	})

	resampler := NewResampler(src, 8000)

	if resampler.Channels() != 2 {
		t.Fatalf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}

	buf := make([]float32, 20) // 10 stereo frames
	n, err := resampler.ReadSamples(buf)

	if n == 0 {
		t.Fatal("ReadSamples() returned 0 samples")
	}

	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	// Verify channels are preserved (interleaved L, R, L, R, ...)
	frames := n / 2
	for f := range frames {
		left := buf[f*2]
		right := buf[f*2+1]

		// Left should be near 0.3, right near 0.7
		if math.Abs(float64(left-0.3)) > 0.2 {
			t.Errorf("frame[%d] left = %v, want ≈0.3", f, left)
		}
		if math.Abs(float64(right-0.7)) > 0.2 {
			t.Errorf("frame[%d] right = %v, want ≈0.7", f, right)
		}
	}
}

func TestResampler_EOF(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 1, 100)
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 1024)

	// Read until EOF
	var totalRead int
	for {
		n, err := resampler.ReadSamples(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	if totalRead == 0 {
		t.Error("No samples read before EOF")
	}

	// Next read should return EOF immediately
	n, err := resampler.ReadSamples(buf)
	if err != io.EOF {
		t.Errorf("After EOF, ReadSamples() error = %v, want io.EOF", err)
	}
	if n != 0 {
		t.Errorf("After EOF, ReadSamples() n = %d, want 0", n)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 1000)
	resampler := NewResampler(src, 8000)

	// Buffer size not multiple of channels (2)
	buf := make([]float32, 7)
	_, err := resampler.ReadSamples(buf)

	if err != ErrInvalidDstSize {
		t.Errorf("ReadSamples() with invalid size error = %v, want ErrInvalidDstSize", err)
	}
}

// BenchmarkResampler_Downsample benchmarks downsampling 44.1kHz -> 8kHz
func BenchmarkResampler_Downsample(b *testing.B) {
	src := newSineSource(44100, 2, 100000, 440.0)
	resampler := NewResampler(src, 8000)
	buf := make([]float32, 4096)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		src.Reset() // Reset
		for {
			_, err := resampler.ReadSamples(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

// BenchmarkResampler_Upsample benchmarks upsampling 8kHz -> 44.1kHz
func BenchmarkResampler_Upsample(b *testing.B) {
	src := newSineSource(8000, 2, 20000, 440.0)
	resampler := NewResampler(src, 44100)
	buf := make([]float32, 4096)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		src.Reset() // Reset
		for {
			_, err := resampler.ReadSamples(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

// BenchmarkResampler_ReadSamples benchmarks single ReadSamples call
func BenchmarkResampler_ReadSamples(b *testing.B) {
	src := newSineSource(44100, 2, 1000000, 440.0)
	resampler := NewResampler(src, 8000)
	buf := make([]float32, 4096)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		_, _ = resampler.ReadSamples(buf)
	}
}

func TestResampler_Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcRate  int
		dstRate  int
		channels int
		frames   int
		buf      int
		want     int // output frames
		tol      int
	}{
		{"6:1 down", 48000, 8000, 1, 48000, 1024, 8000, 200},
		{"1:6 up", 8000, 48000, 1, 8000, 1024, 48000, 500},
		{"5.1 surround", 44100, 8000, 6, 44100, 60, 8000, 200},
		{"one frame per read", 44100, 8000, 2, 4410, 2, 800, 40},
		{"two frames", 44100, 8000, 1, 2, 10, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newSineSource(tt.srcRate, tt.channels, tt.frames, 440.0)
			resampler := NewResampler(src, tt.dstRate)

			buf := make([]float32, tt.buf)
			total := 0
			for {
				n, err := resampler.ReadSamples(buf)
				if n%tt.channels != 0 {
					t.Fatalf("ReadSamples() n = %d, not whole frames", n)
				}
				total += n
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("ReadSamples() error = %v", err)
				}
			}

			frames := total / tt.channels
			if frames < tt.want-tt.tol || frames > tt.want+tt.tol {
				t.Errorf("got %d frames, want ≈%d (±%d)", frames, tt.want, tt.tol)
			}
		})
	}
}

func TestResampler_ConsecutiveReads(t *testing.T) {
	t.Parallel()

	src := newConstantSource(44100, 1, 44100, 0.5)
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 100)
	for i := range 3 {
		n, err := resampler.ReadSamples(buf)
		if err != nil || n != len(buf) {
			t.Fatalf("read %d = %d, %v, want %d, nil", i, n, err, len(buf))
		}
		for j := range n {
			if math.Abs(float64(buf[j]-0.5)) > 0.01 {
				t.Fatalf("read %d: buf[%d] = %v, want ≈0.5", i, j, buf[j])
			}
		}
	}
}

func BenchmarkResampler_MultiChannel(b *testing.B) {
	src := newMockSource(44100, 8, 100000, func(sample int, channel int) float32 {
		return float32(sample%100) / 100.0
	})
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		resampler := NewResampler(src, 8000)
		for {
			_, err := resampler.ReadSamples(buf)
			if err == io.EOF {
				break
			}
		}
	}
}

func TestResampler_StarvedSourceResumes(t *testing.T) {
	t.Parallel()

	inner := newConstantSource(8000, 1, 400, 0.25)
	src := &stallingSource{mockSource: inner, stallEvery: 50}
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 64)
	var total, starved int

	for {
		n, err := resampler.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
		if n < len(buf) {
			starved++
		}
		if starved > 1000 {
			t.Fatal("resampler never reached EOF")
		}
	}

	if starved == 0 {
		t.Error("expected at least one short read while the source was starved")
	}

	// 1:1 ratio, so every input frame comes out again.
	if total < 390 || total > 402 {
		t.Errorf("total samples = %d, want ≈400", total)
	}
}

func TestResampler_SetSourceRate(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 1, 16000, 0.5)
	resampler := NewResampler(src, 8000)
	resampler.SetSourceRate(16000)

	buf := make([]float32, 1024)
	var total int
	for {
		n, err := resampler.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	// Twice the input rate halves the output.
	if total < 7900 || total > 8100 {
		t.Errorf("total samples = %d, want ≈8000", total)
	}
}
