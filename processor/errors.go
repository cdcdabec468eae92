// SPDX-License-Identifier: EPL-2.0

package processor

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateName   = errors.New("name already in use")
	ErrNotFound        = errors.New("no such sound")
	ErrClosed          = errors.New("processor is closed")
)
