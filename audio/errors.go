// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrInvalidInput marks a missing, unreadable or malformed audio file.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidArgument marks a call whose precondition was violated.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPlatform marks a failure to acquire an OS or device resource.
	ErrPlatform = errors.New("platform resource failure")

	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrUnknownFormat       = errors.New("no opener registered for format")
)
