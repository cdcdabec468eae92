// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audstream/audio"
)

// aiffReader is the part of aiff.Decoder the source reads through.
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source decodes the sound data chunk of an AIFF file to little-endian PCM
// at the file's own bit depth. 8-bit output is unsigned like WAV.
type Source struct {
	file   io.Closer
	dec    aiffReader
	rewind func() (aiffReader, error)
	format audio.Format
	length int64
	pos    int64
	eof    bool
	ibuf   *goaudio.IntBuffer
	// carry holds the encoded samples of a frame cut short by a decoder
	// error, emitted ahead of the next Read.
	carry []byte
}

func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	dec, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	format := audio.Format{
		Channels:      int(dec.NumChans),
		SampleRate:    dec.SampleRate,
		BitsPerSample: int(dec.BitDepth),
	}
	if err := format.Validate(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w: %w", audio.ErrInvalidInput, path, ErrUnsupportedAiffLayout, err)
	}

	rewind := func() (aiffReader, error) {
		dec, err := decode(f)
		if err != nil {
			return nil, err
		}
		return dec, nil
	}
	frames := int64(dec.NumSampleFrames)

	return newSource(dec, rewind, f, format, frames), nil
}

// decode positions a fresh decoder at the start of rs and reads the COMM
// chunk. go-audio decoders cannot seek back on their own.
func decode(rs io.ReadSeeker) (*aiff.Decoder, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, ErrNotAiffFile)
	}
	dec.ReadInfo()

	return dec, nil
}

func newSource(dec aiffReader, rewind func() (aiffReader, error), file io.Closer, f audio.Format, frames int64) *Source {
	return &Source{
		file:   file,
		dec:    dec,
		rewind: rewind,
		format: f,
		length: frames * int64(f.BlockAlign()),
		ibuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
			Data:           make([]int, 4096*f.Channels),
			SourceBitDepth: f.BitsPerSample,
		},
	}
}

func putSample(dst []byte, v, bits int) {
	switch bits {
	case 8:
		dst[0] = byte(v + 128)
	case 16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case 24:
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
		dst[2] = byte(v >> 16)
	case 32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	}
}

func (s *Source) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	bits := s.format.BitsPerSample
	width := bits / 8
	want := len(p) / s.format.BlockAlign() * s.format.Channels
	if want == 0 {
		return 0, nil
	}

	got := copy(p, s.carry) / width
	s.carry = s.carry[:0]

	for got < want {
		s.ibuf.Data = s.ibuf.Data[:min(want-got, cap(s.ibuf.Data))]

		n, err := s.dec.PCMBuffer(s.ibuf)
		for i, v := range s.ibuf.Data[:n] {
			putSample(p[(got+i)*width:], v, bits)
		}
		got += n

		if err == io.EOF || (n == 0 && err == nil) {
			s.eof = true
			break
		}
		if err != nil {
			whole := got - got%s.format.Channels
			s.carry = append(s.carry, p[whole*width:got*width]...)
			s.pos += int64(whole * width)
			return whole * width, fmt.Errorf("%w", err)
		}
	}

	// A trailing partial frame at the end of the data is dropped.
	got -= got % s.format.Channels
	s.pos += int64(got * width)
	if got == 0 && s.eof {
		return 0, io.EOF
	}

	return got * width, nil
}

func (s *Source) SeekToStart() error {
	dec, err := s.rewind()
	if err != nil {
		return err
	}

	s.dec = dec
	s.pos = 0
	s.eof = false
	s.carry = s.carry[:0]

	return nil
}

func (s *Source) AtEnd() bool          { return s.eof || s.pos >= s.length }
func (s *Source) Format() audio.Format { return s.format }
func (s *Source) Len() int64           { return s.length }

func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Opener opens .aif and .aiff files.
type Opener struct{}

func (Opener) Open(path string) (audio.Source, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}
