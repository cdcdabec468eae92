// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"errors"
	"math"
	"testing"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/internal/audiotest"
)

var mono8k = audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16}

func decode(t *testing.T, pcm []byte, bits int) []float32 {
	t.Helper()

	samples := make([]float32, len(pcm)/(bits/8))
	audio.DecodeSamples(samples, pcm, bits)
	return samples
}

func TestConvertSamples_Basic(t *testing.T) {
	t.Parallel()

	// 1 second of stereo audio at 44.1kHz
	src := audiotest.NewSineSource(44100, 2, 44100, 440.0)

	pcm, err := ConvertSamples(src, mono8k, 4096)
	if err != nil {
		t.Fatalf("ConvertSamples() error = %v", err)
	}

	if len(pcm)%mono8k.BlockAlign() != 0 {
		t.Errorf("ConvertSamples() returned a partial frame: %d bytes", len(pcm))
	}

	got := len(pcm) / mono8k.BlockAlign()
	if got < 8000-200 || got > 8000+200 {
		t.Errorf("ConvertSamples() got %d frames, want ≈8000 (±200)", got)
	}
}

func TestConvertSamples_AlreadyMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(16000, 1, 16000, 0.5)

	pcm, err := ConvertSamples(src, mono8k, 4096)
	if err != nil {
		t.Fatalf("ConvertSamples() error = %v", err)
	}

	samples := decode(t, pcm, 16)
	if len(samples) < 7800 || len(samples) > 8200 {
		t.Errorf("ConvertSamples() got %d samples, want ≈8000", len(samples))
	}

	for i, s := range samples {
		if math.Abs(float64(s-0.5)) > 0.03 {
			t.Errorf("samples[%d] = %v, want ≈0.5", i, s)
			break
		}
	}
}

func TestConvertSamples_Silence(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 44100)

	pcm, err := ConvertSamples(src, mono8k, 4096)
	if err != nil {
		t.Fatalf("ConvertSamples() error = %v", err)
	}

	for i, s := range decode(t, pcm, 16) {
		if math.Abs(float64(s)) > 0.003 {
			t.Errorf("samples[%d] = %v, want ≈0 (silence)", i, s)
			break
		}
	}
}

func TestConvertSamples_EmptySource(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 0)

	pcm, err := ConvertSamples(src, mono8k, 4096)
	if err != nil {
		t.Fatalf("ConvertSamples() error = %v", err)
	}
	if len(pcm) != 0 {
		t.Errorf("ConvertSamples() got %d bytes, want 0", len(pcm))
	}
}

func TestConvertSamples_VariousRates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcRate  int
		channels int
		dst      audio.Format
	}{
		{"44.1kHz stereo to 8kHz mono", 44100, 2, mono8k},
		{"48kHz stereo to 16kHz stereo", 48000, 2, audio.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16}},
		{"8kHz mono to 16kHz stereo", 8000, 1, audio.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16}},
		{"22.05kHz mono to 8kHz 24 bit", 22050, 1, audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 24}},
		{"16kHz stereo to 48kHz 8 bit", 16000, 2, audio.Format{Channels: 2, SampleRate: 48000, BitsPerSample: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// One second of audio.
			src := audiotest.NewSineSource(tt.srcRate, tt.channels, tt.srcRate, 440.0)

			pcm, err := ConvertSamples(src, tt.dst, 4096)
			if err != nil {
				t.Fatalf("ConvertSamples() error = %v", err)
			}

			frames := len(pcm) / tt.dst.BlockAlign()
			tolerance := tt.dst.SampleRate / 20 // 5%
			if frames < tt.dst.SampleRate-tolerance || frames > tt.dst.SampleRate+tolerance {
				t.Errorf("ConvertSamples() got %d frames, want ≈%d (±%d)",
					frames, tt.dst.SampleRate, tolerance)
			}
		})
	}
}

func TestConvertSamples_Clamping(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 1, 99, func(sample int, channel int) float32 {
		switch sample % 3 {
		case 0:
			return 2.0
		case 1:
			return -2.0
		}
		return 0.0
	})

	pcm, err := ConvertSamples(src, mono8k, 4096)
	if err != nil {
		t.Fatalf("ConvertSamples() error = %v", err)
	}

	samples := decode(t, pcm, 16)
	if len(samples) != 99 {
		t.Fatalf("ConvertSamples() got %d samples, want 99", len(samples))
	}

	want := []float32{1, -1, 0}
	for i, s := range samples {
		if math.Abs(float64(s-want[i%3])) > 0.001 {
			t.Errorf("samples[%d] = %v, want %v", i, s, want[i%3])
			break
		}
	}
}

func TestConvertSamples_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		format     audio.Format
		bufferSize int
	}{
		{"no channels", audio.Format{Channels: 0, SampleRate: 8000, BitsPerSample: 16}, 4096},
		{"no rate", audio.Format{Channels: 1, SampleRate: 0, BitsPerSample: 16}, 4096},
		{"12 bit", audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 12}, 4096},
		{"buffer smaller than a frame", audio.Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSilentSource(8000, 1, 100)
			if _, err := ConvertSamples(src, tt.format, tt.bufferSize); err == nil {
				t.Error("ConvertSamples() error = nil")
			}
		})
	}

	src := audiotest.NewSilentSource(8000, 1, 100)
	if _, err := ConvertSamples(src, mono8k, 0); !errors.Is(err, audio.ErrInvalidArgument) {
		t.Errorf("ConvertSamples() with no buffer error = %v, want ErrInvalidArgument", err)
	}
}

func TestConvert_Source(t *testing.T) {
	t.Parallel()

	in := audio.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16}
	data := make([]byte, in.ByteRate())
	samples := make([]float32, len(data)/2)
	for i := range samples {
		samples[i] = 0.25
	}
	audio.EncodeSamples(data, samples, 16)

	src := audiotest.NewPCMSource(data, in).WithMaxRead(1000)

	pcm, err := Convert(src, mono8k, 1024)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	got := decode(t, pcm, 16)
	if len(got) < 7800 || len(got) > 8200 {
		t.Errorf("Convert() got %d samples, want ≈8000", len(got))
	}
	for i, s := range got {
		if math.Abs(float64(s-0.25)) > 0.02 {
			t.Errorf("samples[%d] = %v, want ≈0.25", i, s)
			break
		}
	}
}

func TestConvert_ReadError(t *testing.T) {
	t.Parallel()

	failure := errors.New("disk gone")
	src := audiotest.NewPCMSource(audiotest.RampPCM(32000, 2), mono8k).WithFailureAt(8000, failure)

	pcm, err := Convert(src, mono8k, 1024)
	if !errors.Is(err, failure) {
		t.Fatalf("Convert() error = %v, want %v", err, failure)
	}
	if len(pcm) > 8000 {
		t.Errorf("Convert() returned %d bytes past the failure", len(pcm))
	}
}

// BenchmarkConvertSamples benchmarks the complete pipeline
func BenchmarkConvertSamples(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _ = ConvertSamples(src, mono8k, 4096)
	}
}

func BenchmarkConvertSamples_SmallBuffer(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _ = ConvertSamples(src, mono8k, 1024)
	}
}

func BenchmarkConvertSamples_Upsample(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(8000, 2, 8000, 440.0)
		_, _ = ConvertSamples(src, audio.Format{Channels: 2, SampleRate: 44100, BitsPerSample: 16}, 4096)
	}
}
