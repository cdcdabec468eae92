// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var (
	ErrNotOgg          = errors.New("not an Ogg file")
	ErrNotVorbis       = errors.New("not an Ogg Vorbis stream")
	ErrMultipleStreams = errors.New("more than one logical stream")
	ErrUnseekable      = errors.New("vorbis stream is not seekable")
)
