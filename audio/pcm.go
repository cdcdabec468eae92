// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audstream/utils"
)

// DecodeSamples converts little-endian PCM bytes into float32 samples and
// returns how many samples were written to dst. 8-bit PCM is unsigned.
func DecodeSamples(dst []float32, src []byte, bitsPerSample int) int {
	width := bitsPerSample / 8
	if width == 0 {
		return 0
	}

	n := min(len(dst), len(src)/width)

	switch bitsPerSample {
	case 8:
		for i := range n {
			dst[i] = utils.Uint8ToFloat32(src[i])
		}
	case 16:
		for i := range n {
			dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(src[i*2:])))
		}
	case 24:
		for i := range n {
			b := src[i*3:]
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			dst[i] = utils.Int24ToFloat32(v)
		}
	case 32:
		for i := range n {
			dst[i] = utils.Int32ToFloat32(int32(binary.LittleEndian.Uint32(src[i*4:])))
		}
	default:
		return 0
	}

	return n
}

// EncodeSamples converts float32 samples into little-endian PCM bytes and
// returns how many bytes were written to dst.
func EncodeSamples(dst []byte, src []float32, bitsPerSample int) int {
	width := bitsPerSample / 8
	if width == 0 {
		return 0
	}

	n := min(len(src), len(dst)/width)

	switch bitsPerSample {
	case 8:
		for i := range n {
			dst[i] = utils.Float32ToUint8(src[i])
		}
	case 16:
		for i := range n {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(utils.Float32ToInt16(src[i])))
		}
	case 24:
		for i := range n {
			v := utils.Float32ToInt24(src[i])
			dst[i*3] = byte(v)
			dst[i*3+1] = byte(v >> 8)
			dst[i*3+2] = byte(v >> 16)
		}
	case 32:
		for i := range n {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(utils.Float32ToInt32(src[i])))
		}
	default:
		return 0
	}

	return n * width
}

// ReadFrames reads from r until p holds as many whole frames as fit, or r
// is exhausted. A trailing partial frame at the end of r is dropped. It
// returns 0 and io.EOF only when no frame could be read.
func ReadFrames(r io.Reader, p []byte, blockAlign int) (int, error) {
	if blockAlign < 1 {
		return 0, fmt.Errorf("%w: block align %d", ErrInvalidArgument, blockAlign)
	}

	p = p[:len(p)-len(p)%blockAlign]
	if len(p) == 0 {
		return 0, nil
	}

	n, err := io.ReadFull(r, p)
	n -= n % blockAlign

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	default:
		return n, fmt.Errorf("%w", err)
	}
}

// ReadAll drains src into memory.
func ReadAll(src Source) ([]byte, error) {
	size := src.Len()
	if size < 0 {
		size = 0
	}

	out := make([]byte, 0, size)
	buf := make([]byte, 32*1024-(32*1024)%max(src.Format().BlockAlign(), 1))

	for {
		n, err := src.Read(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}
		if n == 0 {
			// a Source never stalls, so nothing more is coming
			return out, nil
		}
	}
}

// PCMReader exposes a PCM byte stream as float32 samples.
//
// A Read that returns no bytes and no error is passed through as a starved
// read, so PCMReader can sit on top of a live queue.
type PCMReader struct {
	r      io.Reader
	format Format
	buf    []byte
}

func NewPCMReader(r io.Reader, f Format) *PCMReader {
	return &PCMReader{
		r:      r,
		format: f,
		buf:    make([]byte, 4096*f.BlockAlign()),
	}
}

func (p *PCMReader) SampleRate() int { return p.format.SampleRate }
func (p *PCMReader) Channels() int   { return p.format.Channels }

func (p *PCMReader) ReadSamples(dst []float32) (int, error) {
	if len(dst)%p.format.Channels != 0 {
		return 0, ErrInvalidDstSize
	}

	need := len(dst) / p.format.Channels * p.format.BlockAlign()
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}

	n, err := p.r.Read(p.buf[:need])
	n -= n % p.format.BlockAlign()

	samples := DecodeSamples(dst, p.buf[:n], p.format.BitsPerSample)
	if err != nil && !errors.Is(err, io.EOF) {
		return samples, fmt.Errorf("%w", err)
	}

	return samples, err
}
