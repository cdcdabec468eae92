// SPDX-License-Identifier: EPL-2.0

package otoengine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
	"github.com/ik5/audstream/internal/audiotest"
)

func decodeFloats(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
	}
	return out
}

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-3 }

func newCore(t *testing.T, f audio.Format) *engine.Core {
	t.Helper()

	c, err := engine.NewCore(f, func(engine.Voice) {}, engine.CoreOptions{})
	if err != nil {
		t.Fatalf("NewCore() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func submitConstant(t *testing.T, c *engine.Core, frames int, v float32) {
	t.Helper()

	f := c.Format()
	samples := make([]float32, frames*f.Channels)
	for i := range samples {
		samples[i] = v
	}
	pcm := make([]byte, frames*f.BlockAlign())
	audio.EncodeSamples(pcm, samples, f.BitsPerSample)

	if err := c.SubmitBuffer(pcm); err != nil {
		t.Fatalf("SubmitBuffer() error = %v", err)
	}
}

func TestDeviceReader_EncodesFloat32(t *testing.T) {
	t.Parallel()

	d := newDeviceReader(audiotest.NewConstantSource(8000, 2, 8, 0.5))

	p := make([]byte, 64)
	n, err := d.Read(p)
	if err != nil || n != 64 {
		t.Fatalf("Read() = %d, %v, want 64, nil", n, err)
	}
	for i, s := range decodeFloats(p) {
		if s != 0.5 {
			t.Errorf("sample %d = %v, want 0.5", i, s)
		}
	}

	// The source is exhausted, the device still gets full frames.
	n, err = d.Read(p)
	if err != nil || n != 64 {
		t.Fatalf("Read() after the end = %d, %v, want 64, nil", n, err)
	}
	for i, s := range decodeFloats(p) {
		if s != 0 {
			t.Errorf("sample %d = %v, want silence", i, s)
		}
	}
}

func TestDeviceReader_WholeFrames(t *testing.T) {
	t.Parallel()

	d := newDeviceReader(audiotest.NewConstantSource(8000, 2, 100, 0.5))

	if n, _ := d.Read(make([]byte, 13)); n != 8 {
		t.Errorf("Read(13 bytes) = %d, want one 8 byte frame", n)
	}
	if n, _ := d.Read(make([]byte, 7)); n != 0 {
		t.Errorf("Read(7 bytes) = %d, want 0", n)
	}
}

func TestPipeline_MonoToStereo(t *testing.T) {
	t.Parallel()

	c := newCore(t, audio.Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	submitConstant(t, c, 4, 0.5)
	c.Play()

	p := make([]byte, 8*2*4)
	if n, err := newPipeline(c, 8000, 2).Read(p); err != nil || n != len(p) {
		t.Fatalf("Read() = %d, %v", n, err)
	}

	got := decodeFloats(p)
	for i, s := range got {
		want := float32(0)
		if i < 8 {
			want = 0.5
		}
		if !near(s, want) {
			t.Errorf("sample %d = %v, want %v", i, s, want)
		}
	}
	if c.PendingBufferCount() != 0 {
		t.Error("queue not drained")
	}
}

func TestPipeline_Resamples(t *testing.T) {
	t.Parallel()

	c := newCore(t, audio.Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16})
	submitConstant(t, c, 100, 0.25)
	c.Play()

	p := make([]byte, 64*2*4)
	if _, err := newPipeline(c, 16000, 2).Read(p); err != nil {
		t.Fatal(err)
	}
	for i, s := range decodeFloats(p) {
		if !near(s, 0.25) {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}

func TestPipeline_SilentWhilePaused(t *testing.T) {
	t.Parallel()

	c := newCore(t, audio.Format{Channels: 2, SampleRate: 48000, BitsPerSample: 16})
	submitConstant(t, c, 16, 0.5)

	p := make([]byte, 16*2*4)
	if _, err := newPipeline(c, 48000, 2).Read(p); err != nil {
		t.Fatal(err)
	}
	for i, s := range decodeFloats(p) {
		if s != 0 {
			t.Fatalf("sample %d = %v while stopped, want silence", i, s)
		}
	}
	if c.PendingBufferCount() != 1 {
		t.Error("stopped voice consumed its queue")
	}
}

func TestOptions_Defaults(t *testing.T) {
	t.Parallel()

	o := Options{}.withDefaults()
	if o.SampleRate != DefaultSampleRate || o.Channels != DefaultChannels || o.BufferDuration != DefaultBufferDuration {
		t.Errorf("withDefaults() = %+v", o)
	}

	o = Options{SampleRate: 44100, Channels: 1}.withDefaults()
	if o.SampleRate != 44100 || o.Channels != 1 {
		t.Errorf("withDefaults() overrode explicit values: %+v", o)
	}
}

func BenchmarkDeviceReader(b *testing.B) {
	src := audiotest.NewSineSource(48000, 2, 1<<30, 440)
	d := newDeviceReader(src)
	p := make([]byte, 4096)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = d.Read(p)
	}
}
