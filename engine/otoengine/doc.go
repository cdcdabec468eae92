// SPDX-License-Identifier: EPL-2.0

// Package otoengine plays voices on the system output through
// github.com/ebitengine/oto/v3.
//
// The device runs at one sample rate and channel count. Each voice is an
// oto.Player reading float32 frames from a conversion chain over its queue:
//
//	queue bytes -> audio.PCMReader -> audio.Resampler -> audio.ChannelMixer
//
// so a voice created at twice the nominal rate plays twice as fast. Volume
// is applied by the player.
package otoengine
