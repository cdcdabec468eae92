// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrNotPCM               = errors.New("only PCM WAV files are supported")
	ErrRIFFSizeMismatch     = errors.New("RIFF size does not match file size")
	ErrMissingFmtChunk      = errors.New("missing fmt chunk")
	ErrMissingDataChunk     = errors.New("missing data chunk")
	ErrTruncatedData        = errors.New("data chunk runs past end of file")
)
