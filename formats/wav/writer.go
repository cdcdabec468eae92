// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ik5/audstream/audio"
)

const canonicalHeaderSize = riffHeaderSize + chunkHeaderSize + pcmFmtSize + chunkHeaderSize

// header returns the canonical 44 byte header for dataSize bytes of PCM.
func header(f audio.Format, dataSize uint32) []byte {
	h := make([]byte, canonicalHeaderSize)

	// RIFF header (12 bytes)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], canonicalHeaderSize-8+dataSize)
	copy(h[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], pcmFmtSize)
	binary.LittleEndian.PutUint16(h[20:22], formatPCM)
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.BitsPerSample))

	// data chunk header (8 bytes)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)

	return h
}

func checkSize(f audio.Format, size int) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w", err)
	}
	if size%f.BlockAlign() != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of frames", audio.ErrInvalidArgument, size)
	}
	if uint64(size) > math.MaxUint32-canonicalHeaderSize {
		return fmt.Errorf("%w: %d bytes does not fit a RIFF file", audio.ErrInvalidArgument, size)
	}
	return nil
}

// WritePCM writes data as a complete PCM WAV file.
func WritePCM(w io.Writer, f audio.Format, data []byte) error {
	if err := checkSize(f, len(data)); err != nil {
		return err
	}

	if _, err := w.Write(header(f, uint32(len(data)))); err != nil {
		return fmt.Errorf("%w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// Writer streams PCM into a WAV file whose length is not known up front.
// The sizes in the header are patched on Close.
type Writer struct {
	ws      io.WriteSeeker
	format  audio.Format
	written int
	started bool
}

func NewWriter(ws io.WriteSeeker, f audio.Format) (*Writer, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &Writer{ws: ws, format: f}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if !w.started {
		if _, err := w.ws.Write(header(w.format, 0)); err != nil {
			return 0, fmt.Errorf("%w", err)
		}
		w.started = true
	}

	n, err := w.ws.Write(p)
	w.written += n
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}
	return n, nil
}

// Close rewrites the header with the final sizes. It does not close the
// underlying WriteSeeker.
func (w *Writer) Close() error {
	size := w.written - w.written%w.format.BlockAlign()
	if err := checkSize(w.format, size); err != nil {
		return err
	}

	h := header(w.format, uint32(size))
	// A torn trailing frame stays in the file but outside the data chunk.
	binary.LittleEndian.PutUint32(h[4:8], uint32(canonicalHeaderSize-8+w.written))

	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	if _, err := w.ws.Write(h); err != nil {
		return fmt.Errorf("%w", err)
	}
	if _, err := w.ws.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// Written is the number of PCM bytes accepted so far.
func (w *Writer) Written() int { return w.written }
