// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"os"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/audstream/audio"
)

// StreamSource reads the data chunk from the file on every Read instead of
// mapping it. It trades page-cache reuse for a constant memory footprint.
type StreamSource struct {
	f    *os.File
	dec  *gowav.Decoder
	pcm  io.Reader
	info Info
	pos  int64
}

// OpenStream validates the WAV header at path and positions a go-audio
// decoder on the first PCM byte.
func OpenStream(path string) (*StreamSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	info, err := ParseHeader(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dec := gowav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, invalid(ErrNotWavFile))
	}
	if err := dec.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, invalid(fmt.Errorf("%w: %w", ErrMissingDataChunk, err)))
	}

	if n := dec.PCMLen(); n < info.DataSize {
		info.DataSize = n - n%int64(info.Format.BlockAlign())
	}

	return &StreamSource{f: f, dec: dec, pcm: dec.PCMChunk, info: info}, nil
}

func (s *StreamSource) Info() Info { return s.info }

func (s *StreamSource) Read(p []byte) (int, error) {
	remaining := s.info.DataSize - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}

	align := s.info.Format.BlockAlign()
	want := min(int64(len(p)), remaining)

	n, err := audio.ReadFrames(s.pcm, p[:want], align)
	s.pos += int64(n)
	if err == io.EOF {
		// The chunk ended before its declared size.
		s.pos = s.info.DataSize
	}

	return n, err
}

func (s *StreamSource) SeekToStart() error {
	if err := s.dec.Rewind(); err != nil {
		return fmt.Errorf("%w", err)
	}

	s.pcm = s.dec.PCMChunk
	s.pos = 0

	return nil
}

func (s *StreamSource) AtEnd() bool          { return s.pos >= s.info.DataSize }
func (s *StreamSource) Format() audio.Format { return s.info.Format }
func (s *StreamSource) Len() int64           { return s.info.DataSize }

func (s *StreamSource) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
