// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files into 16-bit PCM sources using
// github.com/jfreymuth/oggvorbis.
//
// Only files with exactly one logical stream are accepted, and the stream
// must be seekable so a looping sound can return to its first sample:
//
//	src, err := vorbis.Open("theme.ogg")
//	if errors.Is(err, vorbis.ErrMultipleStreams) {
//	    // chained or multiplexed file
//	}
//
// Samples come out of the decoder as float32 and are converted with the
// same clamping used everywhere else in the module. Len is exact since
// oggvorbis reports the sample count of a seekable stream up front.
package vorbis
