// SPDX-License-Identifier: EPL-2.0

package beepengine

import (
	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/engine"
)

type coreReader struct {
	core *engine.Core
}

func (r coreReader) Read(p []byte) (int, error) {
	return r.core.Read(p), nil
}

// coreStreamer is a beep.Streamer over a voice queue. It always fills the
// whole request, with silence where the queue runs dry, and reports the end
// of the stream once the voice is closed.
type coreStreamer struct {
	core *engine.Core
	src  audio.SampleReader
	buf  []float32
}

func newCoreStreamer(c *engine.Core) *coreStreamer {
	var src audio.SampleReader = audio.NewPCMReader(coreReader{c}, c.Format())
	if c.Format().Channels != 2 {
		src = audio.NewChannelMixer(src, 2)
	}
	return &coreStreamer{core: c, src: src}
}

func (s *coreStreamer) Stream(samples [][2]float64) (int, bool) {
	select {
	case <-s.core.Done():
		return 0, false
	default:
	}

	want := len(samples) * 2
	if cap(s.buf) < want {
		s.buf = make([]float32, want)
	}
	buf := s.buf[:want]

	n := 0
	for n < want {
		k, err := s.src.ReadSamples(buf[n:])
		n += k
		if k == 0 || err != nil {
			break
		}
	}
	clear(buf[n:])

	for i := range samples {
		samples[i][0] = float64(buf[2*i])
		samples[i][1] = float64(buf[2*i+1])
	}

	return len(samples), true
}

func (s *coreStreamer) Err() error { return nil }
