// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audstream/audio"
)

// ErrUnknownLength is returned for streams whose decoded size cannot be
// determined, which also means they cannot be rewound.
var ErrUnknownLength = errors.New("mp3 stream length is unknown")

// mp3Reader is the part of gomp3.Decoder the source needs.
type mp3Reader interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

// go-mp3 always decodes to 16-bit stereo.
const (
	channels      = 2
	bitsPerSample = 16
)

type Source struct {
	file   io.Closer
	dec    mp3Reader
	format audio.Format
	length int64
	pos    int64
	eof    bool
}

func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", audio.ErrInvalidInput, path, err)
	}

	src, err := newSource(dec, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return src, nil
}

func newSource(dec mp3Reader, file io.Closer) (*Source, error) {
	length := dec.Length()
	if length < 0 {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, ErrUnknownLength)
	}

	format := audio.Format{Channels: channels, SampleRate: dec.SampleRate(), BitsPerSample: bitsPerSample}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	return &Source{
		file:   file,
		dec:    dec,
		format: format,
		length: length - length%int64(format.BlockAlign()),
	}, nil
}

func (s *Source) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	n, err := audio.ReadFrames(s.dec, p, s.format.BlockAlign())
	s.pos += int64(n)
	if err == io.EOF {
		s.eof = true
	}

	return n, err
}

func (s *Source) SeekToStart() error {
	if _, err := s.dec.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}

	s.pos = 0
	s.eof = false

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

type Opener struct{}

func (Opener) Open(path string) (audio.Source, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}
