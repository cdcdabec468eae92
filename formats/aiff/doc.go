// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// AIFF stores big-endian signed samples. Source converts them to the
// little-endian layout every other source in the module produces, keeping
// the bit depth of the file. 8-bit samples become unsigned on the way out
// so they match 8-bit WAV.
//
// Rewinding seeks the file back to the start and reads the COMM chunk
// again with a fresh decoder.
package aiff
