// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/audstream/audio"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	pcmFmtSize      = 16
	formatPCM       = 1
)

// Info locates the PCM payload inside a WAV file.
type Info struct {
	Format     audio.Format
	DataOffset int64
	DataSize   int64
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
}

// ParseHeader walks the RIFF chunks of a WAV file of the given size and
// returns the format and the location of the data chunk.
//
// The declared RIFF size must match the file size. Chunks other than fmt
// and data are skipped; odd-sized chunks are followed by a pad byte.
func ParseHeader(r io.ReaderAt, size int64) (Info, error) {
	var info Info

	hdr := make([]byte, riffHeaderSize)
	if size < riffHeaderSize {
		return info, invalid(ErrNotWavFile)
	}
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return info, invalid(fmt.Errorf("%w: %w", ErrNotWavFile, err))
	}

	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return info, invalid(ErrNotWavFile)
	}
	if int64(binary.LittleEndian.Uint32(hdr[4:8]))+8 != size {
		return info, invalid(ErrRIFFSizeMismatch)
	}

	var haveFmt, haveData bool
	chunk := make([]byte, chunkHeaderSize)
	body := make([]byte, pcmFmtSize)

	for off := int64(riffHeaderSize); off+chunkHeaderSize <= size && !(haveFmt && haveData); {
		if _, err := r.ReadAt(chunk, off); err != nil {
			return info, invalid(fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err))
		}

		id := string(chunk[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		bodyOff := off + chunkHeaderSize

		switch id {
		case "fmt ":
			if chunkSize < pcmFmtSize || bodyOff+pcmFmtSize > size {
				return info, invalid(ErrUnsupportedWavLayout)
			}
			if _, err := r.ReadAt(body, bodyOff); err != nil {
				return info, invalid(fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err))
			}
			if binary.LittleEndian.Uint16(body[0:2]) != formatPCM {
				return info, invalid(ErrNotPCM)
			}

			info.Format = audio.Format{
				Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if err := info.Format.Validate(); err != nil {
				return info, invalid(fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err))
			}
			if int(binary.LittleEndian.Uint16(body[12:14])) != info.Format.BlockAlign() {
				return info, invalid(ErrUnsupportedWavLayout)
			}
			haveFmt = true

		case "data":
			if bodyOff+chunkSize > size {
				return info, invalid(ErrTruncatedData)
			}
			info.DataOffset = bodyOff
			info.DataSize = chunkSize
			haveData = true
		}

		off = bodyOff + chunkSize + chunkSize&1
	}

	if !haveFmt {
		return info, invalid(ErrMissingFmtChunk)
	}
	if !haveData {
		return info, invalid(ErrMissingDataChunk)
	}

	// A torn last frame is never played.
	info.DataSize -= info.DataSize % int64(info.Format.BlockAlign())

	return info, nil
}
