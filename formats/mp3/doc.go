// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// The decoder always produces 16-bit little-endian stereo, so mono files
// come out with both channels equal. Open requires a file whose decoded
// length is known up front:
//
//	src, err := mp3.Open("voice.mp3")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// Each Read keeps decoding until the buffer holds as many whole frames as
// fit or the stream ends.
package mp3
