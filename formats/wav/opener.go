// SPDX-License-Identifier: EPL-2.0

package wav

import "github.com/ik5/audstream/audio"

// Opener opens WAV files as memory-mapped sources, or as file-streamed
// sources when Streamed is set.
type Opener struct {
	Streamed bool
}

func (o Opener) Open(path string) (audio.Source, error) {
	if o.Streamed {
		src, err := OpenStream(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := OpenMapped(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}
