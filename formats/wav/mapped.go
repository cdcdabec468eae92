// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/ik5/audstream/audio"
)

// MappedSource serves the data chunk of a WAV file straight out of a
// read-only memory mapping. It is not safe for concurrent use.
type MappedSource struct {
	ra   *mmap.ReaderAt
	info Info
	pos  int64
}

// OpenMapped validates the WAV header at path and maps the file.
func OpenMapped(path string) (*MappedSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", audio.ErrInvalidInput, path)
	}

	ra, err := mmap.Open(path)
	if err != nil {
		if os.IsPermission(err) || os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: mapping %s: %w", audio.ErrPlatform, path, err)
	}

	info, err := ParseHeader(ra, int64(ra.Len()))
	if err != nil {
		_ = ra.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &MappedSource{ra: ra, info: info}, nil
}

func (s *MappedSource) Info() Info { return s.info }

func (s *MappedSource) Read(p []byte) (int, error) {
	remaining := s.info.DataSize - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}

	align := s.info.Format.BlockAlign()
	n := min(int64(len(p)-len(p)%align), remaining)
	if n == 0 {
		return 0, nil
	}

	got, err := s.ra.ReadAt(p[:n], s.info.DataOffset+s.pos)
	s.pos += int64(got)
	if err != nil && err != io.EOF {
		return got, fmt.Errorf("%w", err)
	}

	return got, nil
}

func (s *MappedSource) SeekToStart() error {
	s.pos = 0
	return nil
}

func (s *MappedSource) AtEnd() bool          { return s.pos >= s.info.DataSize }
func (s *MappedSource) Format() audio.Format { return s.info.Format }
func (s *MappedSource) Len() int64           { return s.info.DataSize }

func (s *MappedSource) Close() error {
	if err := s.ra.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
