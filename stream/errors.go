// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	ErrClosed         = errors.New("instance is closed")
	ErrZeroMultiplier = errors.New("playback speed multiplier must be at least 1")
	ErrVolumeRange    = errors.New("volume must be within [0, 1]")
	ErrSpeedRange     = errors.New("playback speed multiplier too large")
)
