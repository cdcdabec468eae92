// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
)

const (
	pageHeaderSize = 27
	flagBOS        = 0x02
)

// countStreams walks the Ogg pages of r and counts beginning-of-stream
// pages. Chained and multiplexed files both report more than one.
func countStreams(r io.ReaderAt, size int64) (int, error) {
	hdr := make([]byte, pageHeaderSize)
	segs := make([]byte, 255)
	streams := 0

	for off := int64(0); off < size; {
		if _, err := r.ReadAt(hdr, off); err != nil {
			return streams, fmt.Errorf("%w: page at %d: %w", ErrNotOgg, off, err)
		}
		if string(hdr[0:4]) != "OggS" || hdr[4] != 0 {
			return streams, fmt.Errorf("%w: bad page at %d", ErrNotOgg, off)
		}
		if hdr[5]&flagBOS != 0 {
			streams++
		}

		nsegs := int(hdr[26])
		if _, err := r.ReadAt(segs[:nsegs], off+pageHeaderSize); err != nil {
			return streams, fmt.Errorf("%w: page at %d: %w", ErrNotOgg, off, err)
		}

		body := 0
		for _, l := range segs[:nsegs] {
			body += int(l)
		}
		off += int64(pageHeaderSize + nsegs + body)
		if off > size {
			return streams, fmt.Errorf("%w: last page is truncated", ErrNotOgg)
		}
	}

	return streams, nil
}
