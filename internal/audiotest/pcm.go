// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/ik5/audstream/audio"
)

// RampPCM returns size bytes of a pattern that does not repeat on any
// power-of-two boundary, so duplicated or dropped bank data shows up in
// comparisons. size is rounded down to a multiple of blockAlign.
func RampPCM(size, blockAlign int) []byte {
	size -= size % blockAlign
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i) ^ byte(i>>8)*3 ^ byte(i>>16)*7
	}
	return data
}

// PCMSource is a scripted audio.Source over an in-memory byte slice.
// It is safe for use from the loader goroutine while a test inspects it.
type PCMSource struct {
	mu      sync.Mutex
	data    []byte
	pos     int
	format  audio.Format
	maxRead int
	failAt  int
	failErr error

	seeks  atomic.Int32
	closes atomic.Int32
	reads  atomic.Int32
}

func NewPCMSource(data []byte, f audio.Format) *PCMSource {
	return &PCMSource{data: data, format: f, failAt: -1}
}

// WithMaxRead caps every Read at n bytes (rounded to whole frames), the way a
// decoder returns less than requested.
func (s *PCMSource) WithMaxRead(n int) *PCMSource {
	s.maxRead = n
	return s
}

// WithFailureAt makes Read return err once the cursor reaches offset.
func (s *PCMSource) WithFailureAt(offset int, err error) *PCMSource {
	s.failAt = offset
	s.failErr = err
	return s
}

func (s *PCMSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads.Add(1)

	if s.failAt >= 0 && s.pos >= s.failAt {
		return 0, s.failErr
	}
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	align := s.format.BlockAlign()
	want := len(p)
	if s.maxRead > 0 {
		want = min(want, s.maxRead)
	}
	if s.failAt >= 0 {
		want = min(want, s.failAt-s.pos)
	}
	want -= want % align

	n := copy(p[:want], s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *PCMSource) SeekToStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seeks.Add(1)
	s.pos = 0
	return nil
}

func (s *PCMSource) AtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pos >= len(s.data)
}

func (s *PCMSource) Format() audio.Format { return s.format }
func (s *PCMSource) Len() int64           { return int64(len(s.data)) }

func (s *PCMSource) Close() error {
	s.closes.Add(1)
	return nil
}

// Seeks is the number of SeekToStart calls so far.
func (s *PCMSource) Seeks() int { return int(s.seeks.Load()) }

// Closes is the number of Close calls so far.
func (s *PCMSource) Closes() int { return int(s.closes.Load()) }

// Reads is the number of Read calls so far.
func (s *PCMSource) Reads() int { return int(s.reads.Load()) }
