// SPDX-License-Identifier: EPL-2.0

package otoengine

import (
	"encoding/binary"
	"math"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

// coreReader adapts the voice queue to io.Reader. An empty queue is a
// starved read, not the end of the stream.
type coreReader struct {
	core *engine.Core
}

func (r coreReader) Read(p []byte) (int, error) {
	return r.core.Read(p), nil
}

// newPipeline converts the voice's PCM to float samples at the device rate
// and channel count.
func newPipeline(c *engine.Core, rate, channels int) *deviceReader {
	f := c.Format()

	var src audio.SampleReader = audio.NewPCMReader(coreReader{c}, f)
	if f.SampleRate != rate {
		src = audio.NewResampler(src, rate)
	}
	if f.Channels != channels {
		src = audio.NewChannelMixer(src, channels)
	}

	return newDeviceReader(src)
}

// deviceReader is the io.Reader handed to oto. It encodes float32 LE
// frames and pads with silence whenever the source has nothing, so the
// device never sees a short read.
type deviceReader struct {
	src      audio.SampleReader
	channels int
	buf      []float32
}

func newDeviceReader(src audio.SampleReader) *deviceReader {
	return &deviceReader{src: src, channels: src.Channels()}
}

func (d *deviceReader) Read(p []byte) (int, error) {
	frame := 4 * d.channels
	want := len(p) / frame * d.channels
	if want == 0 {
		return 0, nil
	}
	if cap(d.buf) < want {
		d.buf = make([]float32, want)
	}
	buf := d.buf[:want]

	n := 0
	for n < want {
		k, err := d.src.ReadSamples(buf[n:])
		n += k
		if k == 0 || err != nil {
			break
		}
	}
	clear(buf[n:])

	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}

	return want * 4, nil
}
