// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audstream/audio"
)

const bitsPerSample = 16

// oggReader is the part of oggvorbis.Reader the source needs.
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	Read(p []float32) (int, error)
}

// Source decodes a single-stream Ogg Vorbis file to 16-bit PCM.
type Source struct {
	file   io.Closer
	dec    oggReader
	format audio.Format
	length int64
	pos    int64
	eof    bool
	fbuf   []float32
}

// Open checks that path holds exactly one seekable Vorbis stream and
// prepares it for decoding.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	src, err := open(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return src, nil
}

func open(f *os.File) (*Source, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	streams, err := countStreams(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}
	if streams == 0 {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, ErrNotOgg)
	}
	if streams > 1 {
		return nil, fmt.Errorf("%w: %w: found %d", audio.ErrInvalidInput, ErrMultipleStreams, streams)
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", audio.ErrInvalidInput, ErrNotVorbis, err)
	}

	return newSource(dec, f)
}

func newSource(dec oggReader, file io.Closer) (*Source, error) {
	// The decoder reports zero frames both for an empty stream and for one
	// it cannot seek. Only the latter fails a rewind.
	frames := dec.Length()
	if frames < 0 {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, ErrUnseekable)
	}
	if frames == 0 {
		if err := dec.SetPosition(0); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", audio.ErrInvalidInput, ErrUnseekable, err)
		}
	}

	format := audio.Format{
		Channels:      dec.Channels(),
		SampleRate:    dec.SampleRate(),
		BitsPerSample: bitsPerSample,
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	return &Source{
		file:   file,
		dec:    dec,
		format: format,
		length: frames * int64(format.BlockAlign()),
		fbuf:   make([]float32, 4096*format.Channels),
	}, nil
}

// Read decodes until p holds as many whole frames as fit or the stream
// ends. A single decoder call often returns less than a full buffer.
func (s *Source) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	const width = bitsPerSample / 8

	want := len(p) / s.format.BlockAlign() * s.format.Channels
	got := 0

	for got < want {
		n, err := s.dec.Read(s.fbuf[:min(want-got, len(s.fbuf))])
		got += audio.EncodeSamples(p[got*width:], s.fbuf[:n], bitsPerSample) / width

		if err == io.EOF {
			s.eof = true
			break
		}
		if err != nil {
			s.pos += int64(got * width)
			return got * width, fmt.Errorf("%w", err)
		}
		if n == 0 {
			break
		}
	}

	s.pos += int64(got * width)
	if got == 0 && s.eof {
		return 0, io.EOF
	}

	return got * width, nil
}

func (s *Source) SeekToStart() error {
	if err := s.dec.SetPosition(0); err != nil {
		return fmt.Errorf("%w", err)
	}

	s.pos = 0
	s.eof = false

	return nil
}

func (s *Source) AtEnd() bool          { return s.eof || s.pos >= s.length }
func (s *Source) Format() audio.Format { return s.format }

// Len is the decoded size in bytes, derived from the stream's sample count.
func (s *Source) Len() int64 { return s.length }

func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Opener opens .ogg and .oga files.
type Opener struct{}

func (Opener) Open(path string) (audio.Source, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}
