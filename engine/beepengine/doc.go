// SPDX-License-Identifier: EPL-2.0

// Package beepengine plays voices through the github.com/gopxl/beep/v2
// speaker.
//
// Every voice is a chain of beep streamers added to the speaker mixer:
//
//	beep.Ctrl -> effects.Volume -> beep.Resample -> queue
//
// The resampler is only inserted when the voice rate differs from the
// speaker rate. Transport and volume changes are applied under the speaker
// lock.
package beepengine
