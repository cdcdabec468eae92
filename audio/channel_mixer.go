// SPDX-License-Identifier: EPL-2.0

package audio

// ChannelMixer remaps interleaved samples to a different channel count.
//
// Downmixing averages every source channel c with c%dst == k into output
// channel k, so dst=1 is a plain mono average. Upmixing repeats source
// channel k%src into output channel k.
type ChannelMixer struct {
	src      SampleReader
	channels int
	tmp      []float32
}

func NewChannelMixer(src SampleReader, channels int) *ChannelMixer {
	return &ChannelMixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

// NewMonoMixer averages all channels of src into one.
func NewMonoMixer(src SampleReader) *ChannelMixer { return NewChannelMixer(src, 1) }

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.channels }

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}

	maxFrames := len(dst) / m.channels
	samplesNeeded := maxFrames * in

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames := n / in

	switch {
	case m.channels == 1 && in == 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case in == 1:
		for f := range frames {
			v := m.tmp[f]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				out[c] = v
			}
		}
	case in < m.channels:
		for f := range frames {
			frame := m.tmp[f*in : (f+1)*in]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				out[c] = frame[c%in]
			}
		}
	default:
		for f := range frames {
			frame := m.tmp[f*in : (f+1)*in]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				var sum float32
				var count int
				for k := c; k < in; k += m.channels {
					sum += frame[k]
					count++
				}
				out[c] = sum / float32(count)
			}
		}
	}

	return frames * m.channels, err
}
